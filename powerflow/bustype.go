package powerflow

import "power-system-analysis/network"

// BusType 母线类型
type BusType int

const (
	Unclassified BusType = iota
	Swing
	// Generation PV 节点, 只修正相角
	Generation
	// Load PQ 节点, 修正相角和幅值
	Load
)

func (t BusType) String() string {
	switch t {
	case Swing:
		return "swing"
	case Generation:
		return "PV"
	case Load:
		return "PQ"
	default:
		return "unclassified"
	}
}

// Classify 按给定功率判断母线类型, 依次匹配
func Classify(bus network.Bus, swingBusNumber int) BusType {
	if bus.Number == swingBusNumber {
		return Swing
	}
	if bus.ActivePowerGenerated != 0 {
		return Generation
	}
	if bus.ActivePowerConsumed != 0 || bus.ReactivePowerConsumed != 0 {
		return Load
	}
	return Unclassified
}
