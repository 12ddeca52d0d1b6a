package network

import (
	"fmt"
	"math"
	"strings"
)

// ComplexMatrix 稠密复数矩阵, 行优先存储
type ComplexMatrix struct {
	rows int
	cols int
	m    [][]complex128
}

func NewComplexMatrix(rows, cols int) *ComplexMatrix {
	cm := &ComplexMatrix{rows: rows, cols: cols}
	cm.m = make([][]complex128, rows)
	for i := 0; i < rows; i++ {
		cm.m[i] = make([]complex128, cols)
	}
	return cm
}

// NewComplexMatrixFrom 按行复制已有数据, 各行长度必须一致
func NewComplexMatrixFrom(data [][]complex128) (*ComplexMatrix, error) {
	rows := len(data)
	cols := 0
	if rows > 0 {
		cols = len(data[0])
	}
	cm := NewComplexMatrix(rows, cols)
	for i, row := range data {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		copy(cm.m[i], row)
	}
	return cm, nil
}

func (cm *ComplexMatrix) Rows() int { return cm.rows }

func (cm *ComplexMatrix) Cols() int { return cm.cols }

func (cm *ComplexMatrix) At(row, col int) complex128 {
	return cm.m[row][col]
}

func (cm *ComplexMatrix) Set(row, col int, v complex128) {
	cm.m[row][col] = v
}

// Add 在原值上累加
func (cm *ComplexMatrix) Add(row, col int, v complex128) {
	cm.m[row][col] += v
}

// String 按 "a + jb" 格式输出, 保留三位小数
func (cm *ComplexMatrix) String() string {
	var sb strings.Builder
	for i := 0; i < cm.rows; i++ {
		for j := 0; j < cm.cols; j++ {
			c := cm.m[i][j]
			fmt.Fprintf(&sb, "%.3f", real(c))
			if imag(c) >= 0 {
				sb.WriteString(" + ")
			} else {
				sb.WriteString(" - ")
			}
			fmt.Fprintf(&sb, "j%.3f", math.Abs(imag(c)))
			if j != cm.cols-1 {
				sb.WriteString("\t\t")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
