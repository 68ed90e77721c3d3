package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"zulaBack/internal/taxi/geo"
	"zulaBack/internal/taxi/ledger"
)

// Route joins a path as "A -> B -> C".
func Route(path []geo.Key) string {
	parts := make([]string, len(path))
	for i, k := range path {
		parts[i] = string(k)
	}
	return strings.Join(parts, " -> ")
}

// PrintRides writes one line per ride. withCommission adds the commission column.
func PrintRides(w io.Writer, rides []ledger.Ride, withCommission bool) error {
	for _, r := range rides {
		line := fmt.Sprintf("%s -> %s | Cab: %d | Fare: %d", r.Source, r.Destination, r.CabID, r.Fare)
		if withCommission {
			line += fmt.Sprintf(" | Commission: %d", r.Commission)
		}
		if _, err := fmt.Fprintf(w, "%s | Route: %s\n", line, Route(r.Path)); err != nil {
			return err
		}
	}
	return nil
}

// PrintFleetSummary renders the admin cab summary as text.
func PrintFleetSummary(w io.Writer, s FleetSummary) error {
	for _, c := range s.Cabs {
		_, err := fmt.Fprintf(w, "Cab ID: %d\nDriver: %s\nLocation: %s\nTotal Trips: %d\nTotal Fare: %d\nCommission: %d\n",
			c.CabID, c.DriverName, c.Location, c.Trips, c.TotalFare, c.Commission)
		if err != nil {
			return err
		}
		for _, r := range c.Rides {
			_, err := fmt.Fprintf(w, "  %s -> %s | Fare: %d | Customer: %s | Route: %s\n",
				r.Source, r.Destination, r.Fare, r.CustomerName, Route(r.Path))
			if err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "Fleet: %d trips, fare %d, commission %d\n", s.TotalTrips, s.TotalFare, s.Commission)
	return err
}

var csvHeader = []string{"kind", "cab_id", "driver", "location", "trips", "fare", "commission", "ride_id", "customer", "route", "created_at"}

// WriteFleetCSV writes one "cab" row per cab followed by a "ride" row per ride.
func WriteFleetCSV(w io.Writer, s FleetSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range s.Cabs {
		cabID := strconv.FormatInt(c.CabID, 10)
		row := []string{"cab", cabID, c.DriverName, c.Location,
			strconv.Itoa(c.Trips), strconv.Itoa(c.TotalFare), strconv.Itoa(c.Commission), "", "", "", ""}
		if err := cw.Write(row); err != nil {
			return err
		}
		for _, r := range c.Rides {
			row := []string{"ride", cabID, c.DriverName, string(r.Destination),
				"", strconv.Itoa(r.Fare), strconv.Itoa(r.Commission),
				strconv.FormatInt(int64(r.ID), 10), r.CustomerName, Route(r.Path), r.CreatedAt.Format("2006-01-02 15:04:05")}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
