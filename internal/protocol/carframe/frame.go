package carframe

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 帧类型, 由部署配置决定, 不从报文中读取
type Kind byte

const (
	KindUnknown  Kind = iota
	KindElectric      // 电动车
	KindFuel          // 燃油车
)

// ErrUnknownKind 当帧类型无法识别时返回
var ErrUnknownKind = errors.New("未知帧类型")

// ParseKind 将配置中的名称 ("fuel" / "electric") 转换为 Kind
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "electric", "ev":
		return KindElectric, nil
	case "fuel":
		return KindFuel, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

func (k Kind) String() string {
	switch k {
	case KindElectric:
		return "electric"
	case KindFuel:
		return "fuel"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// Size 返回该类型帧的固定长度, 未知类型返回 0
func (k Kind) Size() int {
	switch k {
	case KindElectric:
		return ElectricFrameSize
	case KindFuel:
		return FuelFrameSize
	default:
		return 0
	}
}

// Frame 是 ElectricFrame 与 FuelFrame 的封闭联合类型
type Frame interface {
	Kind() Kind
	Common() CommonFrame
	isFrame()
}

func (ElectricFrame) Kind() Kind            { return KindElectric }
func (f ElectricFrame) Common() CommonFrame { return f.CommonFrame }
func (ElectricFrame) isFrame()              {}

func (FuelFrame) Kind() Kind            { return KindFuel }
func (f FuelFrame) Common() CommonFrame { return f.CommonFrame }
func (FuelFrame) isFrame()              {}

// Decode 按 kind 选择解析器
func Decode(kind Kind, r *Reader) (Frame, error) {
	switch kind {
	case KindElectric:
		f, err := DecodeElectric(r)
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindFuel:
		f, err := DecodeFuel(r)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
}

// DecodeBytes 从 data 开头解析一帧
func DecodeBytes(kind Kind, data []byte) (Frame, error) {
	return Decode(kind, NewReader(data))
}
