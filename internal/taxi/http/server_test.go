package taxihttp

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"zulaBack/internal/taxi/dispatch"
	"zulaBack/internal/taxi/ledger"
	"zulaBack/internal/taxi/system"
	"zulaBack/internal/taxi/ws"
)

type testLogger struct{}

func (testLogger) Infof(string, ...interface{})  {}
func (testLogger) Errorf(string, ...interface{}) {}

var testConfig = dispatch.ConfigAdapter{
	FareRate:           10,
	CommissionPercent:  30,
	RebalanceThreshold: 2,
	HailWaitMax:        200 * time.Millisecond,
}

type fixture struct {
	t   *testing.T
	sys *system.System
	mux *pat.PatternServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sys := system.New(system.Options{Config: testConfig, Logger: testLogger{}})
	customers := ws.NewHub("customer", "customer_id", testLogger{}, nil)
	drivers := ws.NewHub("driver", "driver_id", testLogger{}, DriverMessageHandler(sys, testLogger{}))
	mux := pat.New()
	NewServer(testLogger{}, testConfig, sys, customers, drivers).RegisterRoutes(mux, alice.New())
	return &fixture{t: t, sys: sys, mux: mux}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) expect(method, path, body string, status int) *httptest.ResponseRecorder {
	f.t.Helper()
	rec := f.do(method, path, body)
	if rec.Code != status {
		f.t.Fatalf("%s %s: expected %d got %d: %s", method, path, status, rec.Code, rec.Body.String())
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// line builds A-5-B-5-C with driver ram and his cab at A and two customers.
func (f *fixture) line() {
	f.t.Helper()
	for _, name := range []string{"A", "B", "C"} {
		f.expect(http.MethodPost, "/api/v1/locations", `{"name":"`+name+`"}`, http.StatusCreated)
	}
	f.expect(http.MethodPost, "/api/v1/edges", `{"from":"a","to":"b","weight":5}`, http.StatusCreated)
	f.expect(http.MethodPost, "/api/v1/edges", `{"from":"b","to":"c","weight":5}`, http.StatusCreated)
	f.expect(http.MethodPost, "/api/v1/users", `{"role":"driver","name":"ram","age":30,"location":"A"}`, http.StatusCreated)
	f.expect(http.MethodPost, "/api/v1/users", `{"role":"customer","name":"cust1","age":25}`, http.StatusCreated)
	f.expect(http.MethodPost, "/api/v1/users", `{"role":"customer","name":"cust2","age":27}`, http.StatusCreated)
	f.expect(http.MethodPost, "/api/v1/users", `{"role":"admin","name":"root","age":40}`, http.StatusCreated)
}

func TestSignupReturnsTaggedAccount(t *testing.T) {
	f := newFixture(t)
	f.expect(http.MethodPost, "/api/v1/locations", `{"name":"A","distance":3}`, http.StatusCreated)

	var acc system.Account
	decode(t, f.expect(http.MethodPost, "/api/v1/users", `{"role":"driver","name":"ram","age":30,"location":"a"}`, http.StatusCreated), &acc)
	if acc.Role != "driver" || acc.Driver == nil || acc.Customer != nil || acc.Driver.Location != "A" || acc.Driver.CabID == 0 {
		t.Fatalf("unexpected account %+v", acc)
	}

	f.expect(http.MethodPost, "/api/v1/users", `{"role":"pilot","name":"x"}`, http.StatusBadRequest)
	f.expect(http.MethodPost, "/api/v1/users", `{"role":"driver","name":"sita","location":"Z"}`, http.StatusNotFound)
	f.expect(http.MethodPost, "/api/v1/users", `{"role":"customer","name":""}`, http.StatusBadRequest)
	f.expect(http.MethodPost, "/api/v1/users", `{"role":"customer","name":"a","extra":1}`, http.StatusBadRequest)
	f.expect(http.MethodPost, "/api/v1/locations", `{"name":"a"}`, http.StatusConflict)
	f.expect(http.MethodPost, "/api/v1/edges", `{"from":"A","to":"A","weight":1}`, http.StatusBadRequest)
}

func TestRouteQuote(t *testing.T) {
	f := newFixture(t)
	f.line()

	var q routeResponse
	decode(t, f.expect(http.MethodGet, "/api/v1/route?from=a&to=c", "", http.StatusOK), &q)
	if q.Route != "A -> B -> C" || q.Distance != 10 || q.Fare != 100 || q.Commission != 30 {
		t.Fatalf("unexpected quote %+v", q)
	}
	f.expect(http.MethodGet, "/api/v1/route?from=a", "", http.StatusBadRequest)
	f.expect(http.MethodGet, "/api/v1/route?from=a&to=q", "", http.StatusNotFound)
}

func TestHailThenHistories(t *testing.T) {
	f := newFixture(t)
	f.line()

	var ride ledger.Ride
	decode(t, f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":1,"from":"A","to":"C"}`, http.StatusCreated), &ride)
	if ride.Fare != 100 || ride.Commission != 30 || ride.DriverID != 1 || len(ride.Path) != 3 {
		t.Fatalf("unexpected ride %+v", ride)
	}

	// The only cab now rests at C.
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":2,"from":"C","to":"A"}`, http.StatusConflict)
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":9,"from":"C","to":"A"}`, http.StatusNotFound)
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":2,"from":"C","to":"Q"}`, http.StatusNotFound)

	var history []ledger.Ride
	decode(t, f.expect(http.MethodGet, "/api/v1/customers/1/rides", "", http.StatusOK), &history)
	if len(history) != 1 || history[0].ID != ride.ID {
		t.Fatalf("unexpected history %+v", history)
	}
	decode(t, f.expect(http.MethodGet, "/api/v1/customers/2/rides", "", http.StatusOK), &history)
	if len(history) != 0 {
		t.Fatalf("expected empty history got %+v", history)
	}
	f.expect(http.MethodGet, "/api/v1/customers/x/rides", "", http.StatusBadRequest)

	var withCommission []ledger.Ride
	decode(t, f.expect(http.MethodGet, "/api/v1/drivers/1/rides", "", http.StatusOK), &withCommission)
	if len(withCommission) != 1 || withCommission[0].Commission != 30 {
		t.Fatalf("unexpected driver view %+v", withCommission)
	}
	decode(t, f.expect(http.MethodGet, "/api/v1/admin/1/rides", "", http.StatusOK), &withCommission)
	if len(withCommission) != 1 {
		t.Fatalf("unexpected admin view %+v", withCommission)
	}
	f.expect(http.MethodGet, "/api/v1/admin/7/rides", "", http.StatusNotFound)

	var earnings struct {
		Earned int `json:"earned"`
	}
	decode(t, f.expect(http.MethodGet, "/api/v1/drivers/1/earnings", "", http.StatusOK), &earnings)
	if earnings.Earned != 70 {
		t.Fatalf("expected 70 earned got %d", earnings.Earned)
	}
}

func TestHailWaitsForReset(t *testing.T) {
	f := newFixture(t)
	f.line()
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":1,"from":"A","to":"C"}`, http.StatusCreated)

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.sys.ResetRestFlags()
	}()
	var ride ledger.Ride
	decode(t, f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":2,"from":"C","to":"A","wait_seconds":5}`, http.StatusCreated), &ride)
	if ride.CustomerID != 2 || ride.Source != "C" {
		t.Fatalf("unexpected ride %+v", ride)
	}

	// wait_seconds is capped by HailWaitMax, so this returns quickly.
	start := time.Now()
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":1,"from":"A","to":"C","wait_seconds":60}`, http.StatusConflict)
	if time.Since(start) > 5*time.Second {
		t.Fatalf("hail wait was not capped")
	}
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":1,"from":"A","to":"C","wait_seconds":-1}`, http.StatusBadRequest)
}

func TestMaintenanceEndpoints(t *testing.T) {
	f := newFixture(t)
	f.line()
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":1,"from":"A","to":"C"}`, http.StatusCreated)

	var reset map[string]int
	decode(t, f.expect(http.MethodPost, "/api/v1/maintenance/reset", "", http.StatusOK), &reset)
	if reset["reset"] != 1 {
		t.Fatalf("expected one reset got %v", reset)
	}

	for _, name := range []string{"sita", "mohan"} {
		f.expect(http.MethodPost, "/api/v1/users", `{"role":"driver","name":"`+name+`","location":"C"}`, http.StatusCreated)
	}
	var rebalanced struct {
		Moves []struct {
			CabID int64  `json:"cab_id"`
			From  string `json:"from"`
			To    string `json:"to"`
		} `json:"moves"`
	}
	decode(t, f.expect(http.MethodPost, "/api/v1/maintenance/rebalance", "", http.StatusOK), &rebalanced)
	if len(rebalanced.Moves) != 1 || rebalanced.Moves[0].From != "C" || rebalanced.Moves[0].To != "A" {
		t.Fatalf("unexpected moves %+v", rebalanced.Moves)
	}
	decode(t, f.expect(http.MethodPost, "/api/v1/maintenance/rebalance", "", http.StatusOK), &rebalanced)
	if len(rebalanced.Moves) != 0 {
		t.Fatalf("second pass should not move anything: %+v", rebalanced.Moves)
	}

	var cabs []system.CabView
	decode(t, f.expect(http.MethodGet, "/api/v1/cabs", "", http.StatusOK), &cabs)
	if len(cabs) != 3 {
		t.Fatalf("expected 3 cabs got %d", len(cabs))
	}
}

func TestDriverAvailability(t *testing.T) {
	f := newFixture(t)
	f.line()

	var d system.DriverView
	decode(t, f.expect(http.MethodPut, "/api/v1/drivers/1/availability", `{"available":false}`, http.StatusOK), &d)
	if d.Available || d.Status != "offline" {
		t.Fatalf("unexpected driver %+v", d)
	}
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":1,"from":"A","to":"C"}`, http.StatusConflict)
	f.expect(http.MethodPut, "/api/v1/drivers/1/availability", `{}`, http.StatusBadRequest)
	f.expect(http.MethodPut, "/api/v1/drivers/9/availability", `{"available":true}`, http.StatusNotFound)

	DriverMessageHandler(f.sys, testLogger{})(1, []byte(`{"available":true}`))
	DriverMessageHandler(f.sys, testLogger{})(1, []byte(`nonsense`))
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":1,"from":"A","to":"C"}`, http.StatusCreated)
}

func TestFleetSummaryFormats(t *testing.T) {
	f := newFixture(t)
	f.line()
	f.expect(http.MethodPost, "/api/v1/rides", `{"customer_id":1,"from":"A","to":"C"}`, http.StatusCreated)

	var sum struct {
		TotalTrips int `json:"total_trips"`
		TotalFare  int `json:"total_fare"`
		Commission int `json:"commission"`
	}
	decode(t, f.expect(http.MethodGet, "/api/v1/admin/fleet", "", http.StatusOK), &sum)
	if sum.TotalTrips != 1 || sum.TotalFare != 100 || sum.Commission != 30 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	rec := f.expect(http.MethodGet, "/api/v1/admin/fleet?format=csv", "", http.StatusOK)
	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(records) != 3 || records[0][0] != "kind" {
		t.Fatalf("unexpected csv %v", records)
	}

	rec = f.expect(http.MethodGet, "/api/v1/admin/fleet?format=text", "", http.StatusOK)
	if !strings.Contains(rec.Body.String(), "A -> B -> C") {
		t.Fatalf("text summary missing route: %s", rec.Body.String())
	}
	f.expect(http.MethodGet, "/api/v1/admin/fleet?format=xml", "", http.StatusBadRequest)
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(dispatch.ErrNoCabAvailable); got != http.StatusConflict {
		t.Fatalf("expected 409 got %d", got)
	}
	if got := statusFor(errUnmapped); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", got)
	}
}

var errUnmapped = errors.New("unmapped")
