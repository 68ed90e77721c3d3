package taxi

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"zulaBack/internal/taxi/pricing"
	"zulaBack/internal/taxi/rebalance"
)

const (
	defaultTickInterval  = 30 * time.Second
	defaultHailWaitMax   = 30 * time.Second
	defaultMirrorTimeout = 2 * time.Second
)

// TaxiConfig holds runtime configuration for the Taxi module.
type TaxiConfig struct {
	FareRate           int
	CommissionPercent  int
	RebalanceThreshold int
	// TickInterval of zero disables the maintenance worker.
	TickInterval  time.Duration
	HailWaitMax   time.Duration
	MirrorTimeout time.Duration
}

// LoadTaxiConfig reads configuration from environment variables and applies defaults.
func LoadTaxiConfig() (TaxiConfig, error) {
	cfg := TaxiConfig{
		FareRate:           pricing.DefaultFareRate,
		CommissionPercent:  pricing.DefaultCommissionPercent,
		RebalanceThreshold: rebalance.DefaultThreshold,
		TickInterval:       defaultTickInterval,
		HailWaitMax:        defaultHailWaitMax,
		MirrorTimeout:      defaultMirrorTimeout,
	}

	if v, err := readIntEnv("FARE_RATE"); err != nil {
		return TaxiConfig{}, fmt.Errorf("parse FARE_RATE: %w", err)
	} else if v != nil {
		cfg.FareRate = *v
	}

	if v, err := readIntEnv("COMMISSION_PERCENT"); err != nil {
		return TaxiConfig{}, fmt.Errorf("parse COMMISSION_PERCENT: %w", err)
	} else if v != nil {
		cfg.CommissionPercent = *v
	}

	if v, err := readIntEnv("REBALANCE_THRESHOLD"); err != nil {
		return TaxiConfig{}, fmt.Errorf("parse REBALANCE_THRESHOLD: %w", err)
	} else if v != nil {
		cfg.RebalanceThreshold = *v
	}

	if v, err := readIntEnv("TICK_SECONDS"); err != nil {
		return TaxiConfig{}, fmt.Errorf("parse TICK_SECONDS: %w", err)
	} else if v != nil {
		cfg.TickInterval = time.Duration(*v) * time.Second
	}

	if v, err := readIntEnv("HAIL_WAIT_MAX_SECONDS"); err != nil {
		return TaxiConfig{}, fmt.Errorf("parse HAIL_WAIT_MAX_SECONDS: %w", err)
	} else if v != nil {
		cfg.HailWaitMax = time.Duration(*v) * time.Second
	}

	if v := os.Getenv("MIRROR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return TaxiConfig{}, fmt.Errorf("parse MIRROR_TIMEOUT: %w", err)
		}
		cfg.MirrorTimeout = d
	}

	if cfg.FareRate <= 0 {
		return TaxiConfig{}, fmt.Errorf("FARE_RATE must be positive")
	}
	if cfg.CommissionPercent < 0 || cfg.CommissionPercent > 100 {
		return TaxiConfig{}, fmt.Errorf("COMMISSION_PERCENT must be within 0..100")
	}
	if cfg.RebalanceThreshold < 1 {
		return TaxiConfig{}, fmt.Errorf("REBALANCE_THRESHOLD must be >= 1")
	}
	if cfg.TickInterval < 0 || cfg.HailWaitMax < 0 || cfg.MirrorTimeout <= 0 {
		return TaxiConfig{}, fmt.Errorf("durations must not be negative")
	}

	return cfg, nil
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
