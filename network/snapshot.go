package network

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var ErrInvalidSnapshot = errors.New("network: invalid snapshot")

// Bus 母线, 功率均为标幺值
type Bus struct {
	Number                int
	Voltage               complex128
	ActivePowerGenerated  float64
	ActivePowerConsumed   float64
	ReactivePowerConsumed float64
}

func (b Bus) Magnitude() float64 { return cmplx.Abs(b.Voltage) }

// Angle 相角, 弧度
func (b Bus) Angle() float64 { return cmplx.Phase(b.Voltage) }

// Snapshot 网络断面: 有序母线列表与节点导纳矩阵.
// Y[i][j] 按母线在列表中的位置索引, 而非母线编号.
type Snapshot struct {
	buses    []Bus
	y        *ComplexMatrix
	position []int
}

func NewSnapshot(buses []Bus, y *ComplexMatrix) (*Snapshot, error) {
	n := len(buses)
	if n == 0 {
		return nil, fmt.Errorf("%w: no buses", ErrInvalidSnapshot)
	}
	if y == nil {
		return nil, fmt.Errorf("%w: missing admittance matrix", ErrInvalidSnapshot)
	}
	if y.Rows() != n || y.Cols() != n {
		return nil, fmt.Errorf("%w: admittance matrix is %dx%d for %d buses", ErrInvalidSnapshot, y.Rows(), y.Cols(), n)
	}

	// position[number] -> 母线在列表中的位置
	position := make([]int, n+1)
	for i := range position {
		position[i] = -1
	}
	for i, bus := range buses {
		if bus.Number < 1 || bus.Number > n {
			return nil, fmt.Errorf("%w: bus number %d outside 1..%d", ErrInvalidSnapshot, bus.Number, n)
		}
		if position[bus.Number] != -1 {
			return nil, fmt.Errorf("%w: duplicate bus number %d", ErrInvalidSnapshot, bus.Number)
		}
		if err := checkBus(bus); err != nil {
			return nil, err
		}
		position[bus.Number] = i
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if cmplx.IsNaN(y.At(i, j)) || cmplx.IsInf(y.At(i, j)) {
				return nil, fmt.Errorf("%w: non-finite admittance at [%d][%d]", ErrInvalidSnapshot, i, j)
			}
		}
	}

	s := &Snapshot{
		buses:    make([]Bus, n),
		y:        y,
		position: position,
	}
	copy(s.buses, buses)
	return s, nil
}

func checkBus(bus Bus) error {
	if cmplx.IsNaN(bus.Voltage) || cmplx.IsInf(bus.Voltage) {
		return fmt.Errorf("%w: bus %d voltage is not finite", ErrInvalidSnapshot, bus.Number)
	}
	if bus.Voltage == 0 {
		return fmt.Errorf("%w: bus %d voltage magnitude is zero", ErrInvalidSnapshot, bus.Number)
	}
	for _, v := range []float64{bus.ActivePowerGenerated, bus.ActivePowerConsumed, bus.ReactivePowerConsumed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bus %d power is not finite", ErrInvalidSnapshot, bus.Number)
		}
	}
	return nil
}

func (s *Snapshot) Len() int { return len(s.buses) }

// Bus 返回指定位置的母线, 调用方不得修改电压
func (s *Snapshot) Bus(pos int) *Bus { return &s.buses[pos] }

// Buses 返回母线列表的副本
func (s *Snapshot) Buses() []Bus {
	out := make([]Bus, len(s.buses))
	copy(out, s.buses)
	return out
}

func (s *Snapshot) Admittance() *ComplexMatrix { return s.y }

// Position 母线编号 -> 列表位置
func (s *Snapshot) Position(number int) (int, bool) {
	if number < 1 || number >= len(s.position) {
		return 0, false
	}
	return s.position[number], true
}

// SetVoltage 只由潮流计算的电压修正调用
func (s *Snapshot) SetVoltage(pos int, v complex128) {
	s.buses[pos].Voltage = v
}
