package taxi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"zulaBack/internal/config"
	"zulaBack/internal/taxi/geo"
	"zulaBack/internal/taxi/rebalance"
)

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, format)
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, format)
}

func demoDeps(t *testing.T) *TaxiDeps {
	t.Helper()
	cfg, err := config.LoadConfig("../../config/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return &TaxiDeps{
		Logger: &recordingLogger{},
		Config: TaxiConfig{
			FareRate:           10,
			CommissionPercent:  30,
			RebalanceThreshold: 2,
			HailWaitMax:        time.Second,
			MirrorTimeout:      time.Second,
		},
		Network: cfg.Network,
	}
}

func TestDepsValidate(t *testing.T) {
	if _, err := TaxiSystem(&TaxiDeps{}); err == nil {
		t.Fatal("expected missing logger error")
	}
	if _, err := TaxiSystem(&TaxiDeps{Logger: &recordingLogger{}}); err == nil {
		t.Fatal("expected unloaded config error")
	}
}

func TestModuleSeedsDemoNetwork(t *testing.T) {
	deps := demoDeps(t)
	sys, err := TaxiSystem(deps)
	if err != nil {
		t.Fatal(err)
	}
	again, err := TaxiSystem(deps)
	if err != nil || again != sys {
		t.Fatalf("module was rebuilt: %v", err)
	}
	if got := len(sys.Locations()); got != 7 {
		t.Fatalf("expected 7 locations got %d", got)
	}
	if got := len(sys.Cabs()); got != 4 {
		t.Fatalf("expected 4 cabs got %d", got)
	}

	mux := pat.New()
	if err := RegisterTaxiRoutes(mux, alice.New(), deps); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rides", strings.NewReader(`{"customer_id":1,"from":"A","to":"C"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var ride struct {
		DriverID int64 `json:"driver_id"`
		Fare     int   `json:"fare"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ride); err != nil {
		t.Fatal(err)
	}
	// ram is the first driver at A and A-B-C costs 5.
	if ride.DriverID != 1 || ride.Fare != 50 {
		t.Fatalf("unexpected ride %+v", ride)
	}
}

func TestSeedNetworkReportsBadEntries(t *testing.T) {
	deps := demoDeps(t)
	deps.Network.Edges = append(deps.Network.Edges, config.Edge{From: "A", To: "NOWHERE", Weight: 1})
	if _, err := TaxiSystem(deps); err == nil || !strings.Contains(err.Error(), "seed edge A-NOWHERE") {
		t.Fatalf("expected seed edge error got %v", err)
	}
}

func TestMaintenanceTick(t *testing.T) {
	deps := demoDeps(t)
	module, err := ensureModule(deps)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := module.system.HailCab(1, "A", "C"); err != nil {
		t.Fatal(err)
	}
	module.tick()

	logger := deps.Logger.(*recordingLogger)
	logger.mu.Lock()
	defer logger.mu.Unlock()
	found := false
	for _, f := range logger.infos {
		if strings.HasPrefix(f, "taxi: maintenance reset=") {
			found = true
		}
	}
	if !found {
		t.Fatalf("tick did not log a reset: %v", logger.infos)
	}
}

func TestMaintenanceTickLogsResetOnRebalanceError(t *testing.T) {
	deps := demoDeps(t)
	deps.Network = config.Network{
		Locations: []config.Location{{Name: "SOLO"}, {Name: "SIDE"}},
		Drivers:   []config.Person{{Name: "ram", Age: 30, Location: "SOLO"}, {Name: "sita", Age: 30, Location: "SOLO"}, {Name: "raja", Age: 30, Location: "SOLO"}},
		Customers: []config.Person{{Name: "asha", Age: 20}},
	}
	module, err := ensureModule(deps)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := module.system.HailCab(1, "SOLO", "SOLO"); err != nil {
		t.Fatal(err)
	}
	module.system.SetTargetSelector(rebalance.TargetFunc(func(geo.Key, []geo.Key, map[geo.Key]int) (geo.Key, error) {
		return "", errors.New("selector down")
	}))
	module.tick()

	logger := deps.Logger.(*recordingLogger)
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 1 || logger.errors[0] != "taxi: maintenance: %v" {
		t.Fatalf("expected the rebalance error to be logged: %v", logger.errors)
	}
	found := false
	for _, f := range logger.infos {
		if strings.HasPrefix(f, "taxi: maintenance reset=") {
			found = true
		}
	}
	if !found {
		t.Fatalf("reset count dropped on error: %v", logger.infos)
	}
}

func TestStartTaxiWorkersDisabled(t *testing.T) {
	deps := demoDeps(t)
	if err := StartTaxiWorkers(context.Background(), deps); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deps.Config.TickInterval = 10 * time.Millisecond
	deps.module = nil
	if err := StartTaxiWorkers(ctx, deps); err != nil {
		t.Fatal(err)
	}
}
