package users

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"zulaBack/internal/taxi/ledger"
)

var (
	ErrUnknownCustomer = errors.New("unknown customer")
	ErrUnknownAdmin    = errors.New("unknown admin")
	ErrUnknownRole     = errors.New("unknown role")
	ErrInvalidProfile  = errors.New("invalid profile")
)

// Role discriminates the account variants.
type Role string

const (
	RoleDriver   Role = "driver"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleDriver, RoleCustomer, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Profile holds identity fields shared by every role.
type Profile struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

// Validate trims the profile and checks required fields.
func (p *Profile) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Gender = strings.TrimSpace(p.Gender)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.Age < 0 {
		return fmt.Errorf("%w: age must be >= 0", ErrInvalidProfile)
	}
	return nil
}

// Customer is a rider. Rides point into the shared ride log.
type Customer struct {
	ID int64
	Profile
	rides []ledger.RideID
}

// Rides returns the customer's ride ids in order.
func (c *Customer) Rides() []ledger.RideID {
	return slices.Clone(c.rides)
}

// Customers owns customer ids and records.
type Customers struct {
	byID   map[int64]*Customer
	nextID int64
}

// NewCustomers creates an empty registry.
func NewCustomers() *Customers {
	return &Customers{byID: make(map[int64]*Customer)}
}

// Register creates a customer with the next id.
func (r *Customers) Register(p Profile) (*Customer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r.nextID++
	c := &Customer{ID: r.nextID, Profile: p}
	r.byID[c.ID] = c
	return c, nil
}

// Get returns the customer with id.
func (r *Customers) Get(id int64) (*Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCustomer, id)
	}
	return c, nil
}

// RecordRide appends a ride reference to the customer's history.
func (r *Customers) RecordRide(id int64, ride ledger.RideID) error {
	c, err := r.Get(id)
	if err != nil {
		return err
	}
	c.rides = append(c.rides, ride)
	return nil
}

// Len returns the number of customers.
func (r *Customers) Len() int { return len(r.byID) }

// Admin is an operator allowed to view every ride.
type Admin struct {
	ID int64
	Profile
}

// Admins owns admin ids and records.
type Admins struct {
	byID   map[int64]*Admin
	nextID int64
}

// NewAdmins creates an empty admin registry.
func NewAdmins() *Admins {
	return &Admins{byID: make(map[int64]*Admin)}
}

// Register validates p and allocates the next admin id.
func (r *Admins) Register(p Profile) (*Admin, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r.nextID++
	a := &Admin{ID: r.nextID, Profile: p}
	r.byID[a.ID] = a
	return a, nil
}

// Get returns the admin with id or ErrUnknownAdmin.
func (r *Admins) Get(id int64) (*Admin, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAdmin, id)
	}
	return a, nil
}
