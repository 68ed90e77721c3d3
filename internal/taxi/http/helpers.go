package taxihttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"zulaBack/internal/taxi/dispatch"
	"zulaBack/internal/taxi/fleet"
	"zulaBack/internal/taxi/fsm"
	"zulaBack/internal/taxi/geo"
	"zulaBack/internal/taxi/ledger"
	"zulaBack/internal/taxi/rebalance"
	"zulaBack/internal/taxi/report"
	"zulaBack/internal/taxi/users"
)

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// parsePathID reads a pat route parameter such as ":id".
func parsePathID(r *http.Request, name string) (int64, error) {
	val := strings.TrimSpace(r.URL.Query().Get(":" + name))
	if val == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{geo.ErrInvalidPath, http.StatusInternalServerError},
	{geo.ErrUnknownLocation, http.StatusNotFound},
	{users.ErrUnknownCustomer, http.StatusNotFound},
	{users.ErrUnknownAdmin, http.StatusNotFound},
	{fleet.ErrUnknownDriver, http.StatusNotFound},
	{fleet.ErrUnknownCab, http.StatusNotFound},
	{fleet.ErrNoCab, http.StatusNotFound},
	{ledger.ErrUnknownRide, http.StatusNotFound},
	{geo.ErrInvalidEdge, http.StatusBadRequest},
	{users.ErrInvalidProfile, http.StatusBadRequest},
	{users.ErrUnknownRole, http.StatusBadRequest},
	{geo.ErrLocationExists, http.StatusConflict},
	{fleet.ErrDriverHasCab, http.StatusConflict},
	{fsm.ErrInvalidTransition, http.StatusConflict},
	{dispatch.ErrNoCabAvailable, http.StatusConflict},
	{rebalance.ErrNoTarget, http.StatusConflict},
	{geo.ErrUnreachable, http.StatusUnprocessableEntity},
	{report.ErrForbidden, http.StatusForbidden},
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}
