// Package powerflow 牛顿-拉夫逊法交流潮流计算.
//
// 求解器直接修改断面中的母线电压:
//
//	solver, err := powerflow.New(snap, powerflow.DefaultConfig())
//	for !solver.HasConverged() {
//		if err := solver.Step(); err != nil { ... }
//	}
//
// 或使用带迭代上限的 Solve.
package powerflow

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"power-system-analysis/network"
)

type Solver struct {
	id         uuid.UUID
	snap       *network.Snapshot
	cfg        Config
	logger     *log.Logger
	estimates  Estimates
	iterations int
}

type Option func(*Solver)

func WithLogger(l *log.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// New 校验配置与断面并计算初始估计值
func New(snap *network.Snapshot, cfg Config, opts ...Option) (*Solver, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, ok := snap.Position(cfg.SwingBusNumber); !ok {
		return nil, fmt.Errorf("%w: swing bus %d not in snapshot", ErrInvalidConfig, cfg.SwingBusNumber)
	}

	s := &Solver{
		id:     uuid.New(),
		snap:   snap,
		cfg:    cfg,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := 0; i < snap.Len(); i++ {
		bus := snap.Bus(i)
		if Classify(*bus, cfg.SwingBusNumber) != Unclassified {
			continue
		}
		if cfg.RejectUnclassified {
			return nil, fmt.Errorf("%w: bus %d has no generation or load", ErrInvalidConfig, bus.Number)
		}
		s.logf("bus %d has no generation or load, excluded from corrections", bus.Number)
	}

	s.estimates = ComputeEstimates(snap, cfg.SwingBusNumber)
	return s, nil
}

func (s *Solver) ID() uuid.UUID { return s.id }

// Iterations 已完成的 Step 次数
func (s *Solver) Iterations() int { return s.iterations }

// Estimates 母线编号 -> 当前估计值
func (s *Solver) Estimates() map[int]Estimate { return s.estimates.ByNumber() }

// Ordered 当前估计值的副本, 按断面顺序
func (s *Solver) Ordered() Estimates { return s.estimates.Clone() }

// Jacobian 当前估计值下的雅可比矩阵
func (s *Solver) Jacobian() *mat.Dense { return BuildJacobian(s.snap, s.estimates) }

// Step 执行一次牛顿-拉夫逊迭代. 矩阵不可解时电压保持不变.
func (s *Solver) Step() error {
	j := s.Jacobian()
	x, err := SolveCorrections(j, s.estimates.MismatchVector())
	if err != nil {
		var lae *LinearAlgebraError
		if errors.As(err, &lae) {
			lae.Iteration = s.iterations + 1
		}
		return err
	}
	if err := s.Apply(x); err != nil {
		return err
	}
	s.iterations++

	m := s.LargestMismatch()
	s.logf("iteration %d: max dP %.6f pu (bus %d), max dQ %.6f pu (bus %d)",
		s.iterations, m.ActivePower, m.ActivePowerBus, m.ReactivePower, m.ReactivePowerBus)
	return nil
}

// Apply 施加修正量并重新计算估计值
func (s *Solver) Apply(x []float64) error {
	if err := applyCorrections(s.snap, s.estimates, x); err != nil {
		return err
	}
	s.estimates = ComputeEstimates(s.snap, s.cfg.SwingBusNumber)
	return nil
}

// HasConverged 非平衡节点的 |dP| 与 PQ 节点的 |dQ| 均不超过门槛
func (s *Solver) HasConverged() bool {
	m := s.LargestMismatch()
	return math.Abs(m.ActivePower) <= s.cfg.MaxActivePowerError &&
		math.Abs(m.ReactivePower) <= s.cfg.MaxReactivePowerError
}

// Solve 迭代至收敛, 超过 MaxIterations 返回 ConvergenceError
func (s *Solver) Solve() error {
	for !s.HasConverged() {
		if s.iterations >= s.cfg.MaxIterations {
			return fmt.Errorf("solver %s: %w", s.id, &ConvergenceError{Iterations: s.iterations, Largest: s.LargestMismatch()})
		}
		if err := s.Step(); err != nil {
			return fmt.Errorf("solver %s: %w", s.id, err)
		}
	}
	s.logf("converged after %d iterations", s.iterations)
	return nil
}

// Mismatch 最大不平衡量 (带符号) 及所在母线编号, 子集为空时编号为 0
type Mismatch struct {
	ActivePower      float64
	ActivePowerBus   int
	ReactivePower    float64
	ReactivePowerBus int
}

func (s *Solver) LargestMismatch() Mismatch {
	var m Mismatch
	list := s.estimates.List
	if k, ok := largestAbs(s.estimates.NonSwing, func(k int) float64 { return list[k].ActivePowerMismatch }); ok {
		m.ActivePower = list[k].ActivePowerMismatch
		m.ActivePowerBus = list[k].Bus.Number
	}
	if k, ok := largestAbs(s.estimates.Load, func(k int) float64 { return list[k].ReactivePowerMismatch }); ok {
		m.ReactivePower = list[k].ReactivePowerMismatch
		m.ReactivePowerBus = list[k].Bus.Number
	}
	return m
}

func largestAbs(positions []int, value func(int) float64) (int, bool) {
	if len(positions) == 0 {
		return 0, false
	}
	abs := make([]float64, len(positions))
	for i, k := range positions {
		abs[i] = math.Abs(value(k))
	}
	return positions[floats.MaxIdx(abs)], true
}

func (s *Solver) logf(format string, args ...interface{}) {
	s.logger.Printf("[Solver %s] "+format, append([]interface{}{s.id.String()[:8]}, args...)...)
}
