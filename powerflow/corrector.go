package powerflow

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"power-system-analysis/network"
)

// SolveCorrections LU 分解求解 J·x = mismatch.
// x 前 len(NonSwing) 个为相角修正 (弧度), 其余为幅值修正 (标幺值).
func SolveCorrections(j *mat.Dense, mismatch []float64) ([]float64, error) {
	if j == nil {
		if len(mismatch) != 0 {
			return nil, fmt.Errorf("powerflow: %d mismatches for an empty jacobian", len(mismatch))
		}
		return []float64{}, nil
	}
	r, c := j.Dims()
	if r != c || r != len(mismatch) {
		return nil, fmt.Errorf("powerflow: jacobian is %dx%d, mismatch vector has %d entries", r, c, len(mismatch))
	}

	var lu mat.LU
	lu.Factorize(j)
	cond := lu.Cond()
	if math.IsInf(cond, 1) || math.IsNaN(cond) || cond > mat.ConditionTolerance {
		return nil, &LinearAlgebraError{Cond: cond}
	}

	b := mat.NewVecDense(len(mismatch), append([]float64(nil), mismatch...))
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		return nil, &LinearAlgebraError{Cond: cond, Err: err}
	}
	out := make([]float64, r)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// applyCorrections 修正非平衡节点相角与 PQ 节点幅值, 平衡节点不变.
// 修正量均为零的母线保持原电压.
func applyCorrections(snap *network.Snapshot, est Estimates, x []float64) error {
	if len(x) != est.Dim() {
		return fmt.Errorf("powerflow: %d corrections for a system of dimension %d", len(x), est.Dim())
	}
	n := snap.Len()
	dTheta := make([]float64, n)
	dV := make([]float64, n)
	touched := make([]bool, n)

	off := len(est.NonSwing)
	for i, k := range est.NonSwing {
		dTheta[k] = x[i]
		touched[k] = true
	}
	for i, k := range est.Load {
		dV[k] = x[off+i]
		touched[k] = true
	}

	for k := 0; k < n; k++ {
		if !touched[k] || (dTheta[k] == 0 && dV[k] == 0) {
			continue
		}
		snap.SetVoltage(k, cmplx.Rect(est.Magnitude[k]+dV[k], est.Angle[k]+dTheta[k]))
	}
	return nil
}
