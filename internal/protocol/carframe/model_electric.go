package carframe

// ElectricFrameSize 公共字段 9 + 电池电量 2
const ElectricFrameSize = CommonFrameSize + 2

// ElectricFrame 电动车帧
type ElectricFrame struct {
	CommonFrame
	BatteryLevelPercentage uint16 `json:"batteryLevelPercentage"` // 动力电池电量 (%)
}

// DecodeElectric 解析 11 字节电动车帧
func DecodeElectric(r *Reader) (ElectricFrame, error) {
	start := r.Offset()
	ef, err := decodeElectric(r)
	if err != nil {
		r.seek(start)
		return ElectricFrame{}, err
	}
	return ef, nil
}

func decodeElectric(r *Reader) (ElectricFrame, error) {
	cf, err := decodeCommon(r)
	if err != nil {
		return ElectricFrame{}, err
	}
	level, err := r.ReadUint16LE()
	if err != nil {
		return ElectricFrame{}, err
	}
	return ElectricFrame{CommonFrame: cf, BatteryLevelPercentage: level}, nil
}
