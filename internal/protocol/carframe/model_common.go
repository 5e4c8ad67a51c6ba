package carframe

// CommonFrameSize 公共字段长度: 7 个状态字节 + 车速 2 字节
const CommonFrameSize = 9

// CommonFrame 燃油车与电动车共享的状态字段
type CommonFrame struct {
	Battery12vNotCharging        bool   `json:"battery12vNotCharging"`        // 12V 蓄电池未充电
	ParkingBrakeOn               bool   `json:"parkingBrakeOn"`               // 驻车制动
	BrakesHydraulicFluidLevelLow bool   `json:"brakesHydraulicFluidLevelLow"` // 制动液位低
	TurningSigns                 bool   `json:"turningSigns"`                 // 转向灯
	AbsAnomaly                   bool   `json:"absAnomaly"`                   // ABS 故障
	HighBeamOn                   bool   `json:"highBeamOn"`                   // 远光灯
	Ignition                     bool   `json:"ignition"`                     // 点火
	Speed                        uint16 `json:"speed"`                        // 车速, 不做范围限制
}

// DecodeCommon 从游标处解析 9 字节公共字段。
// 数据不足时返回 UnderflowError, 游标回到帧起始位置。
func DecodeCommon(r *Reader) (CommonFrame, error) {
	start := r.Offset()
	cf, err := decodeCommon(r)
	if err != nil {
		r.seek(start)
		return CommonFrame{}, err
	}
	return cf, nil
}

func decodeCommon(r *Reader) (CommonFrame, error) {
	var cf CommonFrame
	// 顺序即线路格式, 不可调整
	flags := []*bool{
		&cf.Battery12vNotCharging,
		&cf.ParkingBrakeOn,
		&cf.BrakesHydraulicFluidLevelLow,
		&cf.TurningSigns,
		&cf.AbsAnomaly,
		&cf.HighBeamOn,
		&cf.Ignition,
	}
	var err error
	for _, f := range flags {
		if *f, err = r.ReadSentinelBool(); err != nil {
			return CommonFrame{}, err
		}
	}
	if cf.Speed, err = r.ReadUint16LE(); err != nil {
		return CommonFrame{}, err
	}
	return cf, nil
}
