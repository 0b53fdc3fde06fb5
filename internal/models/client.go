// Package models defines the data structures for the property matching engine.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SearchCriteria holds what a client is looking for. Every field is optional;
// an absent field places no constraint on the matching axis.
type SearchCriteria struct {
	MinBudget          *decimal.Decimal `json:"min_budget,omitempty" db:"min_budget"`
	MaxBudget          *decimal.Decimal `json:"max_budget,omitempty" db:"max_budget"`
	MinAreaSqm         *int             `json:"min_area_sqm,omitempty" db:"min_area_sqm"`
	MaxAreaSqm         *int             `json:"max_area_sqm,omitempty" db:"max_area_sqm"`
	MinRooms           *decimal.Decimal `json:"min_rooms,omitempty" db:"min_rooms"`
	MaxRooms           *decimal.Decimal `json:"max_rooms,omitempty" db:"max_rooms"`
	PreferredLocations []string         `json:"preferred_locations,omitempty" db:"preferred_locations"`
	PropertyTypes      []PropertyType   `json:"property_types,omitempty" db:"property_types"`
}

// IsEmpty reports whether no constraint is set at all.
func (c *SearchCriteria) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.MinBudget == nil && c.MaxBudget == nil &&
		c.MinAreaSqm == nil && c.MaxAreaSqm == nil &&
		c.MinRooms == nil && c.MaxRooms == nil &&
		len(c.PreferredLocations) == 0 && len(c.PropertyTypes) == 0
}

// Client represents a prospective buyer or tenant owned by an agent.
type Client struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AgentID   uuid.UUID `json:"agent_id" db:"agent_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name.
func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ClientWithCriteria is a client paired with saved search criteria.
// It is the candidate type when matching clients against a property.
type ClientWithCriteria struct {
	Client
	Criteria SearchCriteria `json:"criteria"`
}

// Agent is the CRM user who owns clients and properties.
type Agent struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
