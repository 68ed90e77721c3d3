package taxihttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"zulaBack/internal/taxi/dispatch"
	"zulaBack/internal/taxi/geo"
	"zulaBack/internal/taxi/ledger"
	"zulaBack/internal/taxi/rebalance"
	"zulaBack/internal/taxi/report"
	"zulaBack/internal/taxi/system"
	"zulaBack/internal/taxi/users"
	"zulaBack/internal/taxi/ws"
)

// Server handles HTTP endpoints for taxi module.
type Server struct {
	logger      dispatch.Logger
	cfg         dispatch.Config
	system      *system.System
	customerHub *ws.Hub
	driverHub   *ws.Hub
}

// NewServer constructs Server.
func NewServer(logger dispatch.Logger, cfg dispatch.Config, sys *system.System, customerHub, driverHub *ws.Hub) *Server {
	return &Server{
		logger:      logger,
		cfg:         cfg,
		system:      sys,
		customerHub: customerHub,
		driverHub:   driverHub,
	}
}

// RegisterRoutes registers HTTP routes on mux, each wrapped in chain.
func (s *Server) RegisterRoutes(mux *pat.PatternServeMux, chain alice.Chain) {
	// Setup
	mux.Post("/api/v1/locations", chain.ThenFunc(s.handleAddLocation))
	mux.Get("/api/v1/locations", chain.ThenFunc(s.handleListLocations))
	mux.Post("/api/v1/edges", chain.ThenFunc(s.handleConnect))
	mux.Get("/api/v1/route", chain.ThenFunc(s.handleRoute))
	mux.Post("/api/v1/users", chain.ThenFunc(s.handleSignup))
	mux.Post("/api/v1/cabs", chain.ThenFunc(s.handleOnboardCab))
	mux.Get("/api/v1/cabs", chain.ThenFunc(s.handleListCabs))

	// Rides
	mux.Post("/api/v1/rides", chain.ThenFunc(s.handleHail))
	mux.Get("/api/v1/customers/:id/rides", chain.ThenFunc(s.handleCustomerRides))

	// Drivers
	mux.Get("/api/v1/drivers/:id/rides", chain.ThenFunc(s.handleDriverRides))
	mux.Get("/api/v1/drivers/:id/earnings", chain.ThenFunc(s.handleDriverEarnings))
	mux.Put("/api/v1/drivers/:id/availability", chain.ThenFunc(s.handleAvailability))

	// Admin
	mux.Get("/api/v1/admin/fleet", chain.ThenFunc(s.handleFleetSummary))
	mux.Get("/api/v1/admin/:id/rides", chain.ThenFunc(s.handleAdminRides))

	// Maintenance
	mux.Post("/api/v1/maintenance/reset", chain.ThenFunc(s.handleReset))
	mux.Post("/api/v1/maintenance/rebalance", chain.ThenFunc(s.handleRebalance))

	// WebSocket
	mux.Get("/ws/customer", http.HandlerFunc(s.customerHub.ServeWS))
	mux.Get("/ws/driver", http.HandlerFunc(s.driverHub.ServeWS))
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Errorf("taxi http: %v", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Distance int    `json:"distance"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key, err := s.system.AddLocation(req.Name, req.Distance)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"name": key, "distance": req.Distance})
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.system.Locations())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Weight int    `json:"weight"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.system.ConnectLocations(req.From, req.To, req.Weight); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"from":   geo.Normalize(req.From),
		"to":     geo.Normalize(req.To),
		"weight": req.Weight,
	})
}

type routeResponse struct {
	Path       []geo.Key `json:"path"`
	Route      string    `json:"route"`
	Distance   int       `json:"distance"`
	Fare       int       `json:"fare"`
	Commission int       `json:"commission"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	q, err := s.system.Route(from, to)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{
		Path:       q.Path,
		Route:      report.Route(q.Path),
		Distance:   q.Distance,
		Fare:       q.Fare,
		Commission: q.Commission,
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role     string `json:"role"`
		Name     string `json:"name"`
		Age      int    `json:"age"`
		Gender   string `json:"gender"`
		Location string `json:"location"`
		SkipCab  bool   `json:"skip_cab"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := users.ParseRole(req.Role)
	if err != nil {
		s.fail(w, err)
		return
	}
	acc, err := s.system.Signup(system.SignupRequest{
		Role:     role,
		Profile:  users.Profile{Name: req.Name, Age: req.Age, Gender: req.Gender},
		Location: req.Location,
		SkipCab:  req.SkipCab,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleOnboardCab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID int64  `json:"driver_id"`
		Location string `json:"location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cab, err := s.system.OnboardCab(req.DriverID, req.Location)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cab)
}

func (s *Server) handleListCabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.system.Cabs())
}

func (s *Server) handleHail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID  int64  `json:"customer_id"`
		From        string `json:"from"`
		To          string `json:"to"`
		WaitSeconds int    `json:"wait_seconds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.WaitSeconds < 0 {
		writeError(w, http.StatusBadRequest, "wait_seconds must be >= 0")
		return
	}

	var (
		ride ledger.Ride
		err  error
	)
	if req.WaitSeconds == 0 {
		ride, err = s.system.HailCab(req.CustomerID, req.From, req.To)
	} else {
		wait := time.Duration(req.WaitSeconds) * time.Second
		if limit := s.cfg.GetHailWaitMax(); limit > 0 && wait > limit {
			wait = limit
		}
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()
		ride, err = s.system.HailWithin(ctx, req.CustomerID, req.From, req.To)
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride)
}

func (s *Server) handleCustomerRides(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rides, err := s.system.CustomerHistory(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rides))
}

func (s *Server) handleDriverRides(w http.ResponseWriter, r *http.Request) {
	s.ridesWithCommission(w, r, users.RoleDriver)
}

func (s *Server) handleAdminRides(w http.ResponseWriter, r *http.Request) {
	s.ridesWithCommission(w, r, users.RoleAdmin)
}

func (s *Server) ridesWithCommission(w http.ResponseWriter, r *http.Request, role users.Role) {
	id, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rides, err := s.system.RidesWithCommission(role, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rides))
}

func (s *Server) handleDriverEarnings(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := s.system.DriverEarnings(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Available *bool `json:"available"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Available == nil {
		writeError(w, http.StatusBadRequest, "available is required")
		return
	}
	d, err := s.system.SetDriverAvailability(id, *req.Available)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleFleetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.system.FleetSummary()
	if err != nil {
		s.fail(w, err)
		return
	}
	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, sum)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="fleet.csv"`)
		if err := report.WriteFleetCSV(w, sum); err != nil {
			s.logger.Errorf("taxi http: fleet csv: %v", err)
		}
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := report.PrintFleetSummary(w, sum); err != nil {
			s.logger.Errorf("taxi http: fleet text: %v", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be json, csv or text")
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"reset": s.system.ResetRestFlags()})
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	moves, err := s.system.Rebalance()
	if err != nil {
		s.fail(w, err)
		return
	}
	if moves == nil {
		moves = []rebalance.Move{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"moves": moves})
}

func nonNil(rides []ledger.Ride) []ledger.Ride {
	if rides == nil {
		return []ledger.Ride{}
	}
	return rides
}
