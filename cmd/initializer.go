package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"zulaBack/internal/config"
	"zulaBack/internal/taxi"
	"zulaBack/internal/taxi/system"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger

	cfg      config.Config
	rdb      *redis.Client
	taxiDeps *taxi.TaxiDeps
	system   *system.System
}

// logAdapter exposes the application loggers through the Infof/Errorf
// interface the taxi packages expect.
type logAdapter struct {
	info *log.Logger
	err  *log.Logger
}

func (l logAdapter) Infof(format string, args ...interface{}) {
	l.info.Output(2, fmt.Sprintf(format, args...))
}

func (l logAdapter) Errorf(format string, args ...interface{}) {
	l.err.Output(2, fmt.Sprintf(format, args...))
}

func openRedis(cfg config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}

func initializeApp(cfg config.Config, rdb *redis.Client, errorLog, infoLog *log.Logger) (*application, error) {
	taxiCfg, err := taxi.LoadTaxiConfig()
	if err != nil {
		return nil, err
	}

	deps := &taxi.TaxiDeps{
		RDB:     rdb,
		Logger:  logAdapter{info: infoLog, err: errorLog},
		Config:  taxiCfg,
		Network: cfg.Network,
	}

	sys, err := taxi.TaxiSystem(deps)
	if err != nil {
		return nil, fmt.Errorf("taxi module: %w", err)
	}

	return &application{
		errorLog: errorLog,
		infoLog:  infoLog,
		cfg:      cfg,
		rdb:      rdb,
		taxiDeps: deps,
		system:   sys,
	}, nil
}
