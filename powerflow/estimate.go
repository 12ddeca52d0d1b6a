package powerflow

import (
	"math"
	"slices"

	"power-system-analysis/network"
)

// Estimate 单条母线在当前电压下的功率计算值与不平衡量.
// Bus 为计算时母线数据的副本, 之后的迭代不会改变它.
type Estimate struct {
	Bus                   network.Bus
	Type                  BusType
	ActivePower           float64
	ReactivePower         float64
	ActivePowerMismatch   float64
	ReactivePowerMismatch float64
}

// Injection 母线上电源发出的功率 (计算注入 + 负荷)
func (e Estimate) Injection() complex128 {
	return complex(e.ActivePower+e.Bus.ActivePowerConsumed, e.ReactivePower+e.Bus.ReactivePowerConsumed)
}

// Estimates 一次迭代的全部估计值.
// NonSwing 与 Load 为断面中的母线位置, 按母线出现顺序排列;
// 雅可比矩阵的行列与修正量的拆分都依赖这一顺序.
type Estimates struct {
	List      []Estimate
	NonSwing  []int
	Load      []int
	Magnitude []float64
	Angle     []float64
}

// ComputeEstimates 按潮流方程计算各母线注入功率
func ComputeEstimates(snap *network.Snapshot, swingBusNumber int) Estimates {
	n := snap.Len()
	y := snap.Admittance()
	est := Estimates{
		List:      make([]Estimate, n),
		NonSwing:  make([]int, 0, n),
		Load:      make([]int, 0, n),
		Magnitude: make([]float64, n),
		Angle:     make([]float64, n),
	}
	for k := 0; k < n; k++ {
		est.Magnitude[k] = snap.Bus(k).Magnitude()
		est.Angle[k] = snap.Bus(k).Angle()
	}

	for k := 0; k < n; k++ {
		bus := snap.Bus(k)
		vk, thetaK := est.Magnitude[k], est.Angle[k]
		var p, q float64
		for i := 0; i < n; i++ {
			yki := y.At(k, i)
			if yki == 0 {
				continue
			}
			g, b := real(yki), imag(yki)
			sin, cos := math.Sincos(thetaK - est.Angle[i])
			vkvi := vk * est.Magnitude[i]
			p += vkvi * (g*cos + b*sin)
			q += vkvi * (g*sin - b*cos)
		}

		t := Classify(*bus, swingBusNumber)
		est.List[k] = Estimate{
			Bus:                   *bus,
			Type:                  t,
			ActivePower:           p,
			ReactivePower:         q,
			ActivePowerMismatch:   bus.ActivePowerGenerated - bus.ActivePowerConsumed - p,
			ReactivePowerMismatch: -bus.ReactivePowerConsumed - q,
		}
		switch t {
		case Generation:
			est.NonSwing = append(est.NonSwing, k)
		case Load:
			est.NonSwing = append(est.NonSwing, k)
			est.Load = append(est.Load, k)
		}
	}
	return est
}

// Clone 深拷贝, 与原值不共享任何切片
func (e Estimates) Clone() Estimates {
	return Estimates{
		List:      slices.Clone(e.List),
		NonSwing:  slices.Clone(e.NonSwing),
		Load:      slices.Clone(e.Load),
		Magnitude: slices.Clone(e.Magnitude),
		Angle:     slices.Clone(e.Angle),
	}
}

// Dim 雅可比矩阵阶数
func (e Estimates) Dim() int { return len(e.NonSwing) + len(e.Load) }

// MismatchVector [dP(非平衡节点); dQ(PQ节点)]
func (e Estimates) MismatchVector() []float64 {
	out := make([]float64, 0, e.Dim())
	for _, k := range e.NonSwing {
		out = append(out, e.List[k].ActivePowerMismatch)
	}
	for _, k := range e.Load {
		out = append(out, e.List[k].ReactivePowerMismatch)
	}
	return out
}

// ByNumber 母线编号 -> 估计值
func (e Estimates) ByNumber() map[int]Estimate {
	out := make(map[int]Estimate, len(e.List))
	for _, est := range e.List {
		out[est.Bus.Number] = est
	}
	return out
}
