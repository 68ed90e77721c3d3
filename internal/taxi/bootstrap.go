package taxi

import (
	"context"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"zulaBack/internal/taxi/dispatch"
	"zulaBack/internal/taxi/fleet"
	"zulaBack/internal/taxi/geo"
	taxihttp "zulaBack/internal/taxi/http"
	"zulaBack/internal/taxi/system"
	"zulaBack/internal/taxi/ws"
)

type moduleState struct {
	mirror      *geo.PositionMirror
	customerHub *ws.Hub
	driverHub   *ws.Hub
	notifier    *ws.Notifier
	system      *system.System
	server      *taxihttp.Server
	cfgAdapter  dispatch.ConfigAdapter
	logger      Logger
}

func ensureModule(deps *TaxiDeps) (*moduleState, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if deps.module != nil {
		return deps.module, nil
	}

	cfgAdapter := dispatch.ConfigAdapter{
		FareRate:           deps.Config.FareRate,
		CommissionPercent:  deps.Config.CommissionPercent,
		RebalanceThreshold: deps.Config.RebalanceThreshold,
		TickInterval:       deps.Config.TickInterval,
		HailWaitMax:        deps.Config.HailWaitMax,
	}

	var mirror *geo.PositionMirror
	var observer fleet.PositionObserver
	if deps.RDB != nil {
		mirror = geo.NewPositionMirror(deps.RDB, deps.Config.MirrorTimeout, deps.Logger)
		observer = mirror
	}

	customerHub := ws.NewHub("customer", "customer_id", deps.Logger, nil)
	notifier := &ws.Notifier{Customers: customerHub}

	sys := system.New(system.Options{
		Config:   cfgAdapter,
		Logger:   deps.Logger,
		Notifier: notifier,
		Observer: observer,
	})
	driverHub := ws.NewHub("driver", "driver_id", deps.Logger, taxihttp.DriverMessageHandler(sys, deps.Logger))
	notifier.Drivers = driverHub

	if err := SeedNetwork(sys, deps.Network); err != nil {
		return nil, err
	}
	if mirror != nil {
		locs, positions := sys.Positions()
		ctx, cancel := context.WithTimeout(context.Background(), deps.Config.MirrorTimeout)
		if err := mirror.Resync(ctx, locs, positions); err != nil {
			deps.Logger.Errorf("taxi: %v", err)
		}
		cancel()
	}

	server := taxihttp.NewServer(deps.Logger, cfgAdapter, sys, customerHub, driverHub)

	deps.module = &moduleState{
		mirror:      mirror,
		customerHub: customerHub,
		driverHub:   driverHub,
		notifier:    notifier,
		system:      sys,
		server:      server,
		cfgAdapter:  cfgAdapter,
		logger:      deps.Logger,
	}
	return deps.module, nil
}

// RegisterTaxiRoutes wires HTTP and WebSocket routes into the provided mux.
func RegisterTaxiRoutes(mux *pat.PatternServeMux, chain alice.Chain, deps *TaxiDeps) error {
	module, err := ensureModule(deps)
	if err != nil {
		return err
	}
	module.server.RegisterRoutes(mux, chain)
	return nil
}

// TaxiSystem returns the dispatch facade, building the module on first use.
func TaxiSystem(deps *TaxiDeps) (*system.System, error) {
	module, err := ensureModule(deps)
	if err != nil {
		return nil, err
	}
	return module.system, nil
}

// StartTaxiWorkers launches the position mirror writer and the maintenance ticker.
func StartTaxiWorkers(ctx context.Context, deps *TaxiDeps) error {
	module, err := ensureModule(deps)
	if err != nil {
		return err
	}
	if module.mirror != nil {
		go module.mirror.Run(ctx)
	}
	if module.cfgAdapter.TickInterval <= 0 {
		module.logger.Infof("taxi: maintenance worker disabled")
		return nil
	}
	go module.startMaintenance(ctx)
	return nil
}

func (m *moduleState) startMaintenance(ctx context.Context) {
	ticker := time.NewTicker(m.cfgAdapter.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *moduleState) tick() {
	res, err := m.system.Tick()
	if err != nil {
		m.logger.Errorf("taxi: maintenance: %v", err)
	}
	if res.Reset > 0 || len(res.Moves) > 0 {
		m.logger.Infof("taxi: maintenance reset=%d moved=%d", res.Reset, len(res.Moves))
	}
}
