package domain

// SystemConfig is the slice of the backend's system configuration the POS
// engine cares about. It is read-only input, refreshed independently of
// cart state.
type SystemConfig struct {
	ExchangeRate         float64 `json:"exchange_rate"`
	CommissionPercentage float64 `json:"commission_percentage"`
}

// DefaultSystemConfig is used when the configuration source is unavailable:
// no conversion, no commission.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{ExchangeRate: 1, CommissionPercentage: 0}
}
