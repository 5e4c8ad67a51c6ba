package carframe

// FuelFrameSize 公共字段 9 + 机油压力 1 + 火花塞 1 + 转速 2 + 油量 2 + 发动机温度 2
const FuelFrameSize = CommonFrameSize + 8

// FuelFrame 燃油车帧
type FuelFrame struct {
	CommonFrame
	OilPressureLow    bool   `json:"oilPressureLow"`    // 机油压力低
	SparkPlugOn       bool   `json:"sparkPlugOn"`       // 火花塞 (预热) 指示
	RPM               uint16 `json:"rpm"`               // 发动机转速 (r/min)
	FuelLevel         uint16 `json:"fuelLevel"`         // 油量
	EngineTemperature uint16 `json:"engineTemperature"` // 发动机温度
}

// DecodeFuel 解析 17 字节燃油车帧。
// 任一阶段数据不足都不会返回部分结果。
func DecodeFuel(r *Reader) (FuelFrame, error) {
	start := r.Offset()
	ff, err := decodeFuel(r)
	if err != nil {
		r.seek(start)
		return FuelFrame{}, err
	}
	return ff, nil
}

func decodeFuel(r *Reader) (FuelFrame, error) {
	cf, err := decodeCommon(r)
	if err != nil {
		return FuelFrame{}, err
	}
	ff := FuelFrame{CommonFrame: cf}

	if ff.OilPressureLow, err = r.ReadSentinelBool(); err != nil {
		return FuelFrame{}, err
	}
	if ff.SparkPlugOn, err = r.ReadSentinelBool(); err != nil {
		return FuelFrame{}, err
	}
	if ff.RPM, err = r.ReadUint16LE(); err != nil {
		return FuelFrame{}, err
	}
	if ff.FuelLevel, err = r.ReadUint16LE(); err != nil {
		return FuelFrame{}, err
	}
	if ff.EngineTemperature, err = r.ReadUint16LE(); err != nil {
		return FuelFrame{}, err
	}
	return ff, nil
}
