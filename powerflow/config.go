package powerflow

import (
	"fmt"
	"math"
)

const (
	DefaultSwingBusNumber        = 1
	DefaultMaxActivePowerError   = 0.001
	DefaultMaxReactivePowerError = 0.001
	DefaultMaxIterations         = 20
)

// Config 求解器配置, 不平衡量门槛为标幺值
type Config struct {
	SwingBusNumber        int     `json:"swing_bus"`
	MaxActivePowerError   float64 `json:"max_active_power_error"`
	MaxReactivePowerError float64 `json:"max_reactive_power_error"`
	// Solve 的迭代上限
	MaxIterations int `json:"max_iterations"`
	// 为 true 时拒绝既无发电也无负荷的非平衡母线
	RejectUnclassified bool `json:"reject_unclassified"`
}

func DefaultConfig() Config {
	return Config{
		SwingBusNumber:        DefaultSwingBusNumber,
		MaxActivePowerError:   DefaultMaxActivePowerError,
		MaxReactivePowerError: DefaultMaxReactivePowerError,
		MaxIterations:         DefaultMaxIterations,
	}
}

func (c Config) Validate() error {
	if c.SwingBusNumber < 1 {
		return fmt.Errorf("%w: swing bus number %d", ErrInvalidConfig, c.SwingBusNumber)
	}
	if !validThreshold(c.MaxActivePowerError) {
		return fmt.Errorf("%w: max active power error %v", ErrInvalidConfig, c.MaxActivePowerError)
	}
	if !validThreshold(c.MaxReactivePowerError) {
		return fmt.Errorf("%w: max reactive power error %v", ErrInvalidConfig, c.MaxReactivePowerError)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations %d", ErrInvalidConfig, c.MaxIterations)
	}
	return nil
}

func validThreshold(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}
