package system

import (
	"zulaBack/internal/taxi/fleet"
	"zulaBack/internal/taxi/geo"
	"zulaBack/internal/taxi/users"
)

// SignupRequest creates an account of any role.
type SignupRequest struct {
	Role users.Role
	users.Profile
	// Location is the starting point of a driver and is ignored for other roles.
	Location string
	// SkipCab registers a driver without onboarding a cab.
	SkipCab bool
}

// Account is a tagged variant: exactly one of Driver, Customer, Admin is set,
// matching Role.
type Account struct {
	Role     users.Role    `json:"role"`
	Driver   *DriverView   `json:"driver,omitempty"`
	Customer *CustomerView `json:"customer,omitempty"`
	Admin    *AdminView    `json:"admin,omitempty"`
}

// ID returns the id of whichever variant is set.
func (a Account) ID() int64 {
	switch a.Role {
	case users.RoleDriver:
		return a.Driver.ID
	case users.RoleCustomer:
		return a.Customer.ID
	case users.RoleAdmin:
		return a.Admin.ID
	}
	return 0
}

// DriverView is the read-only snapshot of a driver returned to callers.
type DriverView struct {
	ID int64 `json:"id"`
	users.Profile
	Location  geo.Key `json:"location"`
	Status    string  `json:"status"`
	Available bool    `json:"available"`
	Resting   bool    `json:"resting"`
	CabID     int64   `json:"cab_id,omitempty"`
	Trips     int     `json:"trips"`
}

// CustomerView is a customer snapshot with their trip count.
type CustomerView struct {
	ID int64 `json:"id"`
	users.Profile
	Trips int `json:"trips"`
}

// AdminView is an admin snapshot.
type AdminView struct {
	ID int64 `json:"id"`
	users.Profile
}

// CabView is a cab snapshot.
type CabView struct {
	ID       int64   `json:"id"`
	DriverID int64   `json:"driver_id"`
	Location geo.Key `json:"location"`
	Trips    int     `json:"trips"`
}

// LocationView is a registered location with the number of cabs parked there.
type LocationView struct {
	Name     geo.Key `json:"name"`
	Distance int     `json:"distance"`
	Cabs     int     `json:"cabs"`
}

func driverView(d *fleet.Driver) DriverView {
	f := d.Flags()
	return DriverView{
		ID:        d.ID,
		Profile:   d.Profile,
		Location:  d.Location(),
		Status:    d.Status(),
		Available: f.Available,
		Resting:   f.Resting,
		CabID:     d.CabID(),
		Trips:     len(d.Rides()),
	}
}

func cabView(c *fleet.Cab) CabView {
	return CabView{ID: c.ID, DriverID: c.DriverID, Location: c.Location(), Trips: c.TotalTrips()}
}

func driverAccount(d *fleet.Driver) Account {
	v := driverView(d)
	return Account{Role: users.RoleDriver, Driver: &v}
}

func customerAccount(c *users.Customer) Account {
	return Account{Role: users.RoleCustomer, Customer: &CustomerView{ID: c.ID, Profile: c.Profile, Trips: len(c.Rides())}}
}

func adminAccount(a *users.Admin) Account {
	return Account{Role: users.RoleAdmin, Admin: &AdminView{ID: a.ID, Profile: a.Profile}}
}
