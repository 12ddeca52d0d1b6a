package powerflow

import (
	"bytes"
	"errors"
	"log"
	"math"
	"math/cmplx"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"gotest.tools/v3/assert"

	"power-system-analysis/network"
)

func TestSolveTwoBus(t *testing.T) {
	snap := twoBusSnapshot(t)
	var buf bytes.Buffer
	s, err := New(snap, DefaultConfig(), WithLogger(log.New(&buf, "", 0)))
	assert.NilError(t, err)

	assert.NilError(t, s.Solve())
	assert.Assert(t, s.HasConverged())
	assert.Assert(t, s.Iterations() >= 1 && s.Iterations() <= 10, "iterations %d", s.Iterations())

	v2 := snap.Bus(1)
	assert.Assert(t, v2.Magnitude() < 1)
	assert.Assert(t, v2.Angle() < 0)
	assert.Equal(t, snap.Bus(0).Voltage, complex128(1))

	m := s.LargestMismatch()
	assert.Assert(t, math.Abs(m.ActivePower) <= 0.001)
	assert.Assert(t, math.Abs(m.ReactivePower) <= 0.001)
	assert.Equal(t, m.ActivePowerBus, 2)

	assert.Assert(t, strings.Contains(buf.String(), "[Solver "+s.ID().String()[:8]+"]"))
	assert.Assert(t, strings.Contains(buf.String(), "converged after"))
}

func TestSolvePowell(t *testing.T) {
	snap := powellSnapshot(t)
	s := mustSolver(t, snap, DefaultConfig())
	assert.NilError(t, s.Solve())
	assert.Assert(t, s.Iterations() <= 6, "iterations %d", s.Iterations())

	for i := 1; i < snap.Len(); i++ {
		b := snap.Bus(i)
		assert.Assert(t, b.Magnitude() > 0.9 && b.Magnitude() < 1, "bus %d |V| %v", b.Number, b.Magnitude())
		assert.Assert(t, b.Angle() < 0, "bus %d angle %v", b.Number, b.Angle())
	}
}

func TestSolveHoldsGenerationMagnitude(t *testing.T) {
	snap := threeBusSnapshot(t)
	s := mustSolver(t, snap, DefaultConfig())
	assert.NilError(t, s.Solve())

	assert.Assert(t, scalar.EqualWithinAbs(snap.Bus(1).Magnitude(), 1.02, 1e-12))
	assert.Assert(t, snap.Bus(1).Angle() != 0)
	assert.Equal(t, snap.Bus(0).Voltage, complex128(1.05))

	gen := s.Estimates()[2]
	assert.Equal(t, gen.Type, Generation)
	assert.Assert(t, scalar.EqualWithinAbs(gen.ActivePowerMismatch, 0, 0.001))
}

func TestConvergedWithoutStep(t *testing.T) {
	t.Run("swing only", func(t *testing.T) {
		snap := mustSnapshot(t, []network.Bus{{Number: 1, Voltage: 1}}, nil)
		s := mustSolver(t, snap, DefaultConfig())
		assert.Assert(t, s.HasConverged())
		assert.NilError(t, s.Step())
		assert.NilError(t, s.Solve())
		assert.Equal(t, snap.Bus(0).Voltage, complex128(1))
	})

	t.Run("already solved", func(t *testing.T) {
		snap := twoBusSnapshot(t)
		assert.NilError(t, mustSolver(t, snap, DefaultConfig()).Solve())

		again := mustSolver(t, snap, DefaultConfig())
		assert.Assert(t, again.HasConverged())
		assert.NilError(t, again.Solve())
		assert.Equal(t, again.Iterations(), 0)
	})
}

func TestApplyZeroCorrectionsKeepsVoltages(t *testing.T) {
	snap := threeBusSnapshot(t)
	snap.SetVoltage(1, cmplx.Rect(1.02, -0.03))
	snap.SetVoltage(2, cmplx.Rect(0.96, -0.07))
	before := voltages(snap)

	s := mustSolver(t, snap, DefaultConfig())
	assert.NilError(t, s.Apply(make([]float64, s.Ordered().Dim())))
	assert.DeepEqual(t, voltages(snap), before)
}

func TestApplyRejectsWrongLength(t *testing.T) {
	s := mustSolver(t, twoBusSnapshot(t), DefaultConfig())
	err := s.Apply([]float64{0.1})
	assert.ErrorContains(t, err, "dimension 2")
}

func TestCorrectionsSolveLinearSystem(t *testing.T) {
	snap := powellSnapshot(t)
	s := mustSolver(t, snap, DefaultConfig())

	j := s.Jacobian()
	mm := s.Ordered().MismatchVector()
	x, err := SolveCorrections(j, mm)
	assert.NilError(t, err)
	r, _ := j.Dims()
	assert.Equal(t, len(x), r)

	var got mat.VecDense
	got.MulVec(j, mat.NewVecDense(len(x), x))
	assert.Assert(t, floats.EqualApprox(got.RawVector().Data, mm, 1e-9))
}

func TestStepRoundTrip(t *testing.T) {
	snap := threeBusSnapshot(t)
	s := mustSolver(t, snap, DefaultConfig())
	assert.NilError(t, s.Step())
	assert.Equal(t, s.Iterations(), 1)

	assert.DeepEqual(t, ComputeEstimates(snap, 1), s.Ordered())
}

func TestStepSingularJacobian(t *testing.T) {
	snap, err := network.NewSnapshot([]network.Bus{
		{Number: 1, Voltage: 1},
		{Number: 2, Voltage: 1, ActivePowerConsumed: 0.5, ReactivePowerConsumed: 0.2},
	}, network.NewComplexMatrix(2, 2))
	assert.NilError(t, err)
	s := mustSolver(t, snap, DefaultConfig())
	before := voltages(snap)

	err = s.Step()
	var lae *LinearAlgebraError
	assert.Assert(t, errors.As(err, &lae), "got %v", err)
	assert.Equal(t, lae.Iteration, 1)
	assert.Equal(t, s.Iterations(), 0)
	assert.DeepEqual(t, voltages(snap), before)

	err = s.Solve()
	assert.Assert(t, errors.As(err, &lae), "got %v", err)
	assert.ErrorContains(t, err, s.ID().String())
}

func TestSolveIterationCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxActivePowerError = 1e-15
	cfg.MaxReactivePowerError = 1e-15
	cfg.MaxIterations = 2
	s := mustSolver(t, powellSnapshot(t), cfg)

	err := s.Solve()
	var ce *ConvergenceError
	assert.Assert(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, ce.Iterations, 2)
	assert.Equal(t, s.Iterations(), 2)
	assert.ErrorContains(t, err, "failed to converge in 2 iterations")
	assert.ErrorContains(t, err, "solver "+s.ID().String())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.Assert(t, errors.Is(err, ErrInvalidConfig))

	cfg := DefaultConfig()
	cfg.SwingBusNumber = 7
	_, err = New(twoBusSnapshot(t), cfg)
	assert.Assert(t, errors.Is(err, ErrInvalidConfig))
	assert.ErrorContains(t, err, "swing bus 7")

	cfg = DefaultConfig()
	cfg.MaxIterations = 0
	_, err = New(twoBusSnapshot(t), cfg)
	assert.Assert(t, errors.Is(err, ErrInvalidConfig))
}

func TestUnclassifiedBus(t *testing.T) {
	build := func() *network.Snapshot {
		return mustSnapshot(t,
			[]network.Bus{
				{Number: 1, Voltage: 1},
				{Number: 2, Voltage: 1},
				{Number: 3, Voltage: 1, ActivePowerConsumed: 0.3, ReactivePowerConsumed: 0.1},
			},
			[]network.Branch{
				{Node1: 1, Node2: 2, Resistance: 0.01, Reactance: 0.05},
				{Node1: 2, Node2: 3, Resistance: 0.01, Reactance: 0.05},
			},
		)
	}

	var buf bytes.Buffer
	s, err := New(build(), DefaultConfig(), WithLogger(log.New(&buf, "", 0)))
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(buf.String(), "bus 2 has no generation or load"))
	assert.Equal(t, s.Ordered().Dim(), 2)
	assert.Equal(t, s.Estimates()[2].Type, Unclassified)

	cfg := DefaultConfig()
	cfg.RejectUnclassified = true
	_, err = New(build(), cfg)
	assert.Assert(t, errors.Is(err, ErrInvalidConfig))
	assert.ErrorContains(t, err, "bus 2")
}

func TestConfigValidate(t *testing.T) {
	assert.NilError(t, DefaultConfig().Validate())

	cases := map[string]func(*Config){
		"swing":    func(c *Config) { c.SwingBusNumber = 0 },
		"negative": func(c *Config) { c.MaxActivePowerError = -1 },
		"nan":      func(c *Config) { c.MaxReactivePowerError = math.NaN() },
		"inf":      func(c *Config) { c.MaxActivePowerError = math.Inf(1) },
		"iter":     func(c *Config) { c.MaxIterations = -3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Assert(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
		})
	}
}

func TestOrderedIsACopy(t *testing.T) {
	snap := threeBusSnapshot(t)
	s := mustSolver(t, snap, DefaultConfig())
	want := ComputeEstimates(snap, 1)

	o := s.Ordered()
	o.NonSwing[0] = 0
	o.Load[0] = 0
	o.List[2].ActivePowerMismatch = 0
	o.List[2].Bus.Number = 9
	o.Magnitude[2] = 5
	o.Angle[2] = 1

	assert.DeepEqual(t, s.Ordered(), want)
	assert.Assert(t, !s.HasConverged())

	ref := mustSolver(t, threeBusSnapshot(t), DefaultConfig())
	assert.NilError(t, s.Step())
	assert.NilError(t, ref.Step())
	assert.DeepEqual(t, s.Ordered(), ref.Ordered())
}

func TestEstimateKeepsItsBusData(t *testing.T) {
	snap := twoBusSnapshot(t)
	s := mustSolver(t, snap, DefaultConfig())

	before := s.Estimates()[2]
	assert.NilError(t, s.Step())

	assert.Equal(t, before.Bus.Voltage, complex128(1))
	assert.Assert(t, snap.Bus(1).Voltage != 1)
	assert.Equal(t, s.Estimates()[2].Bus.Voltage, snap.Bus(1).Voltage)
}
