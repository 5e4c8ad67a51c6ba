package usecase

import (
	"encoding/json"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

var cborEnc = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MQPayload 包装投递到消息队列的帧，增加类型与来源标识
type MQPayload struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	VehicleID  string      `json:"vehicleId"`
	Source     string      `json:"source"`
	ReceivedAt time.Time   `json:"receivedAt"`
	Data       interface{} `json:"data"`
}

// NewMQPayload 创建带唯一 ID 的载荷
func NewMQPayload(msgType, vehicleID, source string, data interface{}) MQPayload {
	return MQPayload{
		ID:         uuid.New(),
		Type:       msgType,
		VehicleID:  vehicleID,
		Source:     source,
		ReceivedAt: time.Now().UTC(),
		Data:       data,
	}
}

func (p MQPayload) MessageKey() string {
	return p.VehicleID
}

// MarshalJSON 将 msgType 与 vehicleId 注入 data 对象, 便于下游只读取 data
func (p MQPayload) MarshalJSON() ([]byte, error) {
	dataBytes, err := json.Marshal(p.Data)
	if err != nil {
		return nil, err
	}

	type Alias MQPayload

	var dataMap map[string]interface{}
	if err := json.Unmarshal(dataBytes, &dataMap); err != nil || dataMap == nil {
		// Data 不是对象 (例如基础类型), 无法注入
		return json.Marshal(Alias(p))
	}
	dataMap["msgType"] = p.Type
	dataMap["vehicleId"] = p.VehicleID

	out := Alias(p)
	out.Data = dataMap
	return json.Marshal(out)
}

// cborPayload 是 MQPayload 的 CBOR 形态, ID 以字符串编码与 JSON 一致
type cborPayload struct {
	ID         string      `cbor:"id"`
	Type       string      `cbor:"type"`
	VehicleID  string      `cbor:"vehicleId"`
	Source     string      `cbor:"source"`
	ReceivedAt time.Time   `cbor:"receivedAt"`
	Data       interface{} `cbor:"data"`
}

// MarshalCBOR 与 MarshalJSON 相同, 把 msgType 与 vehicleId 注入 data 对象
func (p MQPayload) MarshalCBOR() ([]byte, error) {
	out := cborPayload{
		ID:         p.ID.String(),
		Type:       p.Type,
		VehicleID:  p.VehicleID,
		Source:     p.Source,
		ReceivedAt: p.ReceivedAt,
		Data:       p.Data,
	}

	dataBytes, err := cborEnc.Marshal(p.Data)
	if err != nil {
		return nil, err
	}
	var dataMap map[string]interface{}
	if err := cbor.Unmarshal(dataBytes, &dataMap); err == nil && dataMap != nil {
		dataMap["msgType"] = p.Type
		dataMap["vehicleId"] = p.VehicleID
		out.Data = dataMap
	}
	return cborEnc.Marshal(out)
}
