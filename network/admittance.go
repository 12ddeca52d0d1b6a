package network

import (
	"errors"
	"fmt"
)

var ErrInvalidBranch = errors.New("network: invalid branch")

// Branch 支路, 所有参数均为标幺值
type Branch struct {
	// 节点1
	Node1 int `json:"node_1"`
	// 节点2, 为0时表示接地支路
	Node2 int `json:"node_2"`
	// 电阻
	Resistance float64 `json:"resistance"`
	// 电抗
	Reactance float64 `json:"reactance"`
	// 每端对地电纳 (线路充电电纳的一半)
	Admittance float64 `json:"admittance"`
}

func (b Branch) isGroundBranch() (int, bool) {
	if b.Node1 == 0 {
		return b.Node2, true
	} else if b.Node2 == 0 {
		return b.Node1, true
	}
	return 0, false
}

func (b Branch) seriesAdmittance() complex128 {
	return 1 / complex(b.Resistance, b.Reactance)
}

// BuildAdmittance 由支路数据形成节点导纳矩阵, 节点编号为 1..n
func BuildAdmittance(n int, branches []Branch) (*ComplexMatrix, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: node count %d", ErrInvalidBranch, n)
	}
	y := NewComplexMatrix(n, n)
	for i, branch := range branches {
		if err := checkBranch(n, branch); err != nil {
			return nil, fmt.Errorf("branch %d: %w", i, err)
		}
		if node, ok := branch.isGroundBranch(); ok {
			// 接地支路只改变自导纳
			if branch.Resistance != 0 || branch.Reactance != 0 {
				y.Add(node-1, node-1, branch.seriesAdmittance())
			}
			if branch.Admittance != 0 {
				y.Add(node-1, node-1, complex(0, branch.Admittance))
			}
			continue
		}
		a, b := branch.Node1-1, branch.Node2-1
		yij := branch.seriesAdmittance()
		shunt := complex(0, branch.Admittance)
		y.Add(a, b, -yij)
		y.Add(b, a, -yij)
		y.Add(a, a, yij+shunt)
		y.Add(b, b, yij+shunt)
	}
	return y, nil
}

func checkBranch(n int, b Branch) error {
	if b.Node1 < 0 || b.Node1 > n || b.Node2 < 0 || b.Node2 > n {
		return fmt.Errorf("%w: node out of range 0..%d (%d-%d)", ErrInvalidBranch, n, b.Node1, b.Node2)
	}
	if b.Node1 == b.Node2 {
		return fmt.Errorf("%w: branch connects node %d to itself", ErrInvalidBranch, b.Node1)
	}
	if _, ground := b.isGroundBranch(); !ground && b.Resistance == 0 && b.Reactance == 0 {
		return fmt.Errorf("%w: zero series impedance between %d and %d", ErrInvalidBranch, b.Node1, b.Node2)
	}
	return nil
}
