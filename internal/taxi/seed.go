package taxi

import (
	"fmt"

	"zulaBack/internal/config"
	"zulaBack/internal/taxi/system"
	"zulaBack/internal/taxi/users"
)

// SeedNetwork loads locations, roads and accounts into sys in file order.
func SeedNetwork(sys *system.System, n config.Network) error {
	for _, l := range n.Locations {
		if _, err := sys.AddLocation(l.Name, l.Distance); err != nil {
			return fmt.Errorf("seed location %q: %w", l.Name, err)
		}
	}
	for _, e := range n.Edges {
		if err := sys.ConnectLocations(e.From, e.To, e.Weight); err != nil {
			return fmt.Errorf("seed edge %s-%s: %w", e.From, e.To, err)
		}
	}
	groups := []struct {
		role   users.Role
		people []config.Person
	}{
		{users.RoleDriver, n.Drivers},
		{users.RoleCustomer, n.Customers},
		{users.RoleAdmin, n.Admins},
	}
	for _, g := range groups {
		for _, p := range g.people {
			req := system.SignupRequest{
				Role:     g.role,
				Profile:  users.Profile{Name: p.Name, Age: p.Age, Gender: p.Gender},
				Location: p.Location,
			}
			if _, err := sys.Signup(req); err != nil {
				return fmt.Errorf("seed %s %q: %w", g.role, p.Name, err)
			}
		}
	}
	return nil
}
