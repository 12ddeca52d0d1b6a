package powerflow

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("powerflow: invalid configuration")

// LinearAlgebraError 雅可比矩阵奇异或病态
type LinearAlgebraError struct {
	Iteration int
	Cond      float64
	Err       error
}

func (e *LinearAlgebraError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("powerflow: jacobian not solvable at iteration %d (cond %g): %v", e.Iteration, e.Cond, e.Err)
	}
	return fmt.Sprintf("powerflow: jacobian not solvable at iteration %d (cond %g)", e.Iteration, e.Cond)
}

func (e *LinearAlgebraError) Unwrap() error { return e.Err }

// ConvergenceError 达到最大迭代次数仍未收敛
type ConvergenceError struct {
	Iterations int
	Largest    Mismatch
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("powerflow: failed to converge in %d iterations (max dP %.6f pu at bus %d, max dQ %.6f pu at bus %d)",
		e.Iterations, e.Largest.ActivePower, e.Largest.ActivePowerBus, e.Largest.ReactivePower, e.Largest.ReactivePowerBus)
}
