package network

import (
	"fmt"
)

// 线路, 参数为每公里有名值
type Circuit struct {
	Node1 int `json:"node_1"`
	Node2 int `json:"node_2"`
	// Ω/km
	R float64 `json:"r"`
	X float64 `json:"x"`
	// S/km
	B float64 `json:"b"`
	// 长度 km
	L float64 `json:"l"`
}

// 双绕组变压器
type Transformer struct {
	Node1 int `json:"node_1"`
	Node2 int `json:"node_2"`
	// 额定容量 MVA
	Sn float64 `json:"Sn"`
	// 短路电压百分数
	Vs float64 `json:"Vs"`
}

// Equipment 以有名值给出的元件参数, 按基准容量 SB (MVA) 与平均额定电压 Vav (kV) 折算为标幺支路
type Equipment struct {
	SB           float64       `json:"SB"`
	Vav          float64       `json:"Vav"`
	Circuits     []Circuit     `json:"circuits"`
	Transformers []Transformer `json:"transformers"`
}

func (e *Equipment) Branches() ([]Branch, error) {
	if e.SB <= 0 || e.Vav <= 0 {
		return nil, fmt.Errorf("%w: base power %v MVA, average voltage %v kV", ErrInvalidBranch, e.SB, e.Vav)
	}
	branches := make([]Branch, 0, len(e.Circuits)+len(e.Transformers))
	for _, c := range e.Circuits {
		branches = append(branches, e.circuitBranch(c))
	}
	for i, t := range e.Transformers {
		if t.Sn <= 0 {
			return nil, fmt.Errorf("transformer %d: %w: rated power %v", i, ErrInvalidBranch, t.Sn)
		}
		branches = append(branches, e.transformerBranch(t))
	}
	return branches, nil
}

func (e *Equipment) circuitBranch(c Circuit) Branch {
	zBase := e.Vav * e.Vav / e.SB
	return Branch{
		Node1:      c.Node1,
		Node2:      c.Node2,
		Resistance: c.R * c.L / zBase,
		Reactance:  c.X * c.L / zBase,
		// 充电电纳两端各一半
		Admittance: 0.5 * c.B * c.L * zBase,
	}
}

func (e *Equipment) transformerBranch(t Transformer) Branch {
	return Branch{
		Node1:     t.Node1,
		Node2:     t.Node2,
		Reactance: (t.Vs / 100) * (e.SB / t.Sn),
	}
}
