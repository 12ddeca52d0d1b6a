package powerflow

import (
	"testing"

	"gotest.tools/v3/assert"

	"power-system-analysis/network"
)

func mustSnapshot(t *testing.T, buses []network.Bus, branches []network.Branch) *network.Snapshot {
	t.Helper()
	y, err := network.BuildAdmittance(len(buses), branches)
	assert.NilError(t, err)
	snap, err := network.NewSnapshot(buses, y)
	assert.NilError(t, err)
	return snap
}

// 平衡节点 1.0∠0°, 负荷节点 0.5 + j0.2
func twoBusSnapshot(t *testing.T) *network.Snapshot {
	return mustSnapshot(t,
		[]network.Bus{
			{Number: 1, Voltage: 1},
			{Number: 2, Voltage: 1, ActivePowerConsumed: 0.5, ReactivePowerConsumed: 0.2},
		},
		[]network.Branch{{Node1: 1, Node2: 2, Resistance: 0.01, Reactance: 0.05}},
	)
}

// 母线2为 PV 节点
func threeBusSnapshot(t *testing.T) *network.Snapshot {
	return mustSnapshot(t,
		[]network.Bus{
			{Number: 1, Voltage: 1.05},
			{Number: 2, Voltage: 1.02, ActivePowerGenerated: 0.4},
			{Number: 3, Voltage: 1, ActivePowerConsumed: 0.6, ReactivePowerConsumed: 0.25},
		},
		[]network.Branch{
			{Node1: 1, Node2: 2, Resistance: 0.02, Reactance: 0.06, Admittance: 0.03},
			{Node1: 1, Node2: 3, Resistance: 0.08, Reactance: 0.24, Admittance: 0.025},
			{Node1: 2, Node2: 3, Resistance: 0.06, Reactance: 0.18, Admittance: 0.02},
		},
	)
}

// Powell 教材算例 3.1 的五节点导纳矩阵, 母线 2..5 均为负荷节点
func powellSnapshot(t *testing.T) *network.Snapshot {
	t.Helper()
	y, err := network.NewComplexMatrixFrom([][]complex128{
		{10.958904 - 25.997397i, -3.424658 + 7.534247i, -3.424658 + 7.534247i, 0, -4.109589 + 10.958904i},
		{-3.424658 + 7.534247i, 11.672080 - 26.060948i, -4.123711 + 9.278351i, 0, -4.123711 + 9.278351i},
		{-3.424658 + 7.534247i, -4.123711 + 9.278351i, 10.475198 - 23.119061i, -2.926829 + 6.341463i, 0},
		{0, 0, -2.926829 + 6.341463i, 7.050541 - 15.594814i, -4.123711 + 9.278351i},
		{-4.109589 + 10.958904i, -4.123711 + 9.278351i, 0, -4.123711 + 9.278351i, 12.357012 - 29.485605i},
	})
	assert.NilError(t, err)
	snap, err := network.NewSnapshot([]network.Bus{
		{Number: 1, Voltage: 1},
		{Number: 2, Voltage: 1, ActivePowerConsumed: 0.4, ReactivePowerConsumed: 0.2},
		{Number: 3, Voltage: 1, ActivePowerConsumed: 0.25, ReactivePowerConsumed: 0.15},
		{Number: 4, Voltage: 1, ActivePowerConsumed: 0.4, ReactivePowerConsumed: 0.2},
		{Number: 5, Voltage: 1, ActivePowerConsumed: 0.5, ReactivePowerConsumed: 0.2},
	}, y)
	assert.NilError(t, err)
	return snap
}

func mustSolver(t *testing.T, snap *network.Snapshot, cfg Config) *Solver {
	t.Helper()
	s, err := New(snap, cfg)
	assert.NilError(t, err)
	return s
}

func voltages(snap *network.Snapshot) []complex128 {
	out := make([]complex128, snap.Len())
	for i := range out {
		out[i] = snap.Bus(i).Voltage
	}
	return out
}
