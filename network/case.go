package network

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"
	"sort"
)

// FlatStartVoltage 未给定电压的母线初值
const FlatStartVoltage = 1 + 0i

// BusRecord 算例文件中的母线数据
type BusRecord struct {
	Number int `json:"number"`
	// 发电有功
	PGen float64 `json:"p_gen"`
	// 负荷有功
	PLoad float64 `json:"p_load"`
	// 负荷无功
	QLoad float64 `json:"q_load"`
	// 电压幅值, 为0时采用平启动
	Voltage float64 `json:"voltage"`
	// 电压相角, 度
	AngleDeg float64 `json:"angle_deg"`
}

// Case 潮流算例, 母线与支路数据均为标幺值.
// Equipment 中的有名值元件折算后追加到 Branches 之后.
// Solver 部分原样保留, 由调用方解析为求解器配置.
type Case struct {
	Solver    json.RawMessage `json:"solver,omitempty"`
	Buses     []BusRecord     `json:"buses"`
	Branches  []Branch        `json:"branches"`
	Equipment *Equipment      `json:"equipment,omitempty"`
}

func LoadCase(path string) (*Case, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeCase(file)
}

func DecodeCase(r io.Reader) (*Case, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	var c Case
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode case: %w", err)
	}
	return &c, nil
}

// Snapshot 形成母线列表 (按编号排序) 与导纳矩阵
func (c *Case) Snapshot() (*Snapshot, error) {
	buses := make([]Bus, 0, len(c.Buses))
	for _, rec := range c.Buses {
		buses = append(buses, rec.bus())
	}
	if len(buses) == 0 {
		return nil, fmt.Errorf("%w: no buses", ErrInvalidSnapshot)
	}
	sort.SliceStable(buses, func(i, j int) bool { return buses[i].Number < buses[j].Number })

	branches, err := c.AllBranches()
	if err != nil {
		return nil, err
	}
	y, err := BuildAdmittance(len(buses), branches)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(buses, y)
}

// AllBranches 标幺支路与折算后的元件支路
func (c *Case) AllBranches() ([]Branch, error) {
	if c.Equipment == nil {
		return c.Branches, nil
	}
	converted, err := c.Equipment.Branches()
	if err != nil {
		return nil, fmt.Errorf("equipment: %w", err)
	}
	return append(append([]Branch(nil), c.Branches...), converted...), nil
}

func (rec BusRecord) bus() Bus {
	v := FlatStartVoltage
	if rec.Voltage != 0 {
		v = cmplx.Rect(rec.Voltage, rec.AngleDeg*math.Pi/180)
	} else if rec.AngleDeg != 0 {
		v = cmplx.Rect(real(FlatStartVoltage), rec.AngleDeg*math.Pi/180)
	}
	return Bus{
		Number:                rec.Number,
		Voltage:               v,
		ActivePowerGenerated:  rec.PGen,
		ActivePowerConsumed:   rec.PLoad,
		ReactivePowerConsumed: rec.QLoad,
	}
}
