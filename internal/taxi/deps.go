package taxi

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"zulaBack/internal/config"
)

// Logger provides minimal logging required by the Taxi module.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// TaxiDeps groups external dependencies needed by the Taxi module.
type TaxiDeps struct {
	// RDB is optional; without it cab positions are not mirrored.
	RDB     *redis.Client
	Logger  Logger
	Config  TaxiConfig
	Network config.Network
	module  *moduleState
}

// Validate ensures required dependencies are provided.
func (d *TaxiDeps) Validate() error {
	if d.Logger == nil {
		return errors.New("taxi deps: Logger is required")
	}
	if d.Config.FareRate <= 0 {
		return errors.New("taxi deps: Config is not loaded")
	}
	return nil
}
