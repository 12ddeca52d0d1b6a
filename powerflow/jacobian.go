package powerflow

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"power-system-analysis/network"
)

// BuildJacobian 形成雅可比矩阵
//
//	J = [[dP/dθ, dP/dV],
//	     [dQ/dθ, dQ/dV]]
//
// 行列依次为 est.NonSwing 与 est.Load. 系统中只有平衡节点时返回 nil.
func BuildJacobian(snap *network.Snapshot, est Estimates) *mat.Dense {
	dim := est.Dim()
	if dim == 0 {
		return nil
	}
	jb := jacobianBuilder{y: snap.Admittance(), est: est}
	j := mat.NewDense(dim, dim, nil)
	off := len(est.NonSwing)

	for r, k := range est.NonSwing {
		for c, m := range est.NonSwing {
			j.Set(r, c, jb.j11(k, m))
		}
		for c, m := range est.Load {
			j.Set(r, off+c, jb.j12(k, m))
		}
	}
	for r, k := range est.Load {
		for c, m := range est.NonSwing {
			j.Set(off+r, c, jb.j21(k, m))
		}
		for c, m := range est.Load {
			j.Set(off+r, off+c, jb.j22(k, m))
		}
	}
	return j
}

// k, m 均为断面中的母线位置
type jacobianBuilder struct {
	y   *network.ComplexMatrix
	est Estimates
}

func (jb jacobianBuilder) terms(k, m int) (g, b, sin, cos float64) {
	ykm := jb.y.At(k, m)
	sin, cos = math.Sincos(jb.est.Angle[k] - jb.est.Angle[m])
	return real(ykm), imag(ykm), sin, cos
}

// dP/dθ
func (jb jacobianBuilder) j11(k, m int) float64 {
	g, b, sin, cos := jb.terms(k, m)
	vk := jb.est.Magnitude[k]
	if k == m {
		return -jb.est.List[k].ReactivePower - vk*vk*b
	}
	return vk * jb.est.Magnitude[m] * (g*sin - b*cos)
}

// dP/dV
func (jb jacobianBuilder) j12(k, m int) float64 {
	g, b, sin, cos := jb.terms(k, m)
	vk := jb.est.Magnitude[k]
	if k == m {
		return jb.est.List[k].ActivePower/vk + g*vk
	}
	return vk * (g*cos + b*sin)
}

// dQ/dθ
func (jb jacobianBuilder) j21(k, m int) float64 {
	g, b, sin, cos := jb.terms(k, m)
	vk := jb.est.Magnitude[k]
	if k == m {
		return jb.est.List[k].ActivePower - g*vk*vk
	}
	return -vk * jb.est.Magnitude[m] * (g*cos + b*sin)
}

// dQ/dV
func (jb jacobianBuilder) j22(k, m int) float64 {
	g, b, sin, cos := jb.terms(k, m)
	vk := jb.est.Magnitude[k]
	if k == m {
		return jb.est.List[k].ReactivePower/vk - b*vk
	}
	return vk * (g*sin - b*cos)
}
