package backend

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

const systemConfigurationQuery = `
  query GetSystemConfiguration {
    systemConfiguration {
      default_exchange_rate
      seller_commission_percentage
    }
  }`

const configTTL = 5 * time.Minute

// ConfigSource serves the system configuration (exchange rate, commission
// percentage) with a short-lived in-process cache. When the backend is
// unreachable it degrades to the last known snapshot, or to the defaults
// (rate 1, commission 0) if nothing was ever fetched. Configuration is
// read-only input here; it is never written back.
type ConfigSource struct {
	gql    *Client
	logger *zap.Logger
	ttl    time.Duration

	mu        sync.Mutex
	snapshot  domain.SystemConfig
	fetchedAt time.Time
}

func NewConfigSource(gql *Client, logger *zap.Logger) *ConfigSource {
	return &ConfigSource{
		gql:      gql,
		logger:   logger,
		ttl:      configTTL,
		snapshot: domain.DefaultSystemConfig(),
	}
}

type systemConfigurationData struct {
	SystemConfiguration []struct {
		DefaultExchangeRate        float64 `json:"default_exchange_rate"`
		SellerCommissionPercentage float64 `json:"seller_commission_percentage"`
	} `json:"systemConfiguration"`
}

// Config returns the current configuration snapshot, refreshing it from
// the backend when the cached one has aged out.
func (s *ConfigSource) Config(ctx context.Context) domain.SystemConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.ttl {
		return s.snapshot
	}

	var data systemConfigurationData
	if err := s.gql.Do(ctx, systemConfigurationQuery, nil, &data); err != nil {
		s.logger.Warn("system configuration fetch failed, using last known values", zap.Error(err))
		return s.snapshot
	}

	if len(data.SystemConfiguration) == 0 {
		s.logger.Warn("system configuration is empty, using defaults")
		s.snapshot = domain.DefaultSystemConfig()
	} else {
		cfg := data.SystemConfiguration[0]
		rate := cfg.DefaultExchangeRate
		if rate <= 0 {
			rate = 1
		}
		s.snapshot = domain.SystemConfig{
			ExchangeRate:         rate,
			CommissionPercentage: cfg.SellerCommissionPercentage,
		}
	}
	s.fetchedAt = time.Now()
	return s.snapshot
}
