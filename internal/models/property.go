// Package models defines the data structures for the property matching engine.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyType represents the kind of property on offer.
type PropertyType string

const (
	PropertyTypeApartment        PropertyType = "APARTMENT"
	PropertyTypeHouse            PropertyType = "HOUSE"
	PropertyTypeMultiFamilyHouse PropertyType = "MULTI_FAMILY_HOUSE"
	PropertyTypeTownhouse        PropertyType = "TOWNHOUSE"
	PropertyTypeCommercial       PropertyType = "COMMERCIAL"
	PropertyTypeLand             PropertyType = "LAND"
	PropertyTypeOther            PropertyType = "OTHER"
)

// ValidPropertyTypes returns all valid property type values.
func ValidPropertyTypes() []PropertyType {
	return []PropertyType{
		PropertyTypeApartment,
		PropertyTypeHouse,
		PropertyTypeMultiFamilyHouse,
		PropertyTypeTownhouse,
		PropertyTypeCommercial,
		PropertyTypeLand,
		PropertyTypeOther,
	}
}

// IsValid checks if the property type is valid.
func (t PropertyType) IsValid() bool {
	for _, valid := range ValidPropertyTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// AvailabilityStatus represents where a property is in its sales lifecycle.
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "AVAILABLE"
	AvailabilityReserved  AvailabilityStatus = "RESERVED"
	AvailabilitySold      AvailabilityStatus = "SOLD"
	AvailabilityRented    AvailabilityStatus = "RENTED"
	AvailabilityWithdrawn AvailabilityStatus = "WITHDRAWN"
)

// ValidAvailabilityStatuses returns all valid availability status values.
func ValidAvailabilityStatuses() []AvailabilityStatus {
	return []AvailabilityStatus{
		AvailabilityAvailable,
		AvailabilityReserved,
		AvailabilitySold,
		AvailabilityRented,
		AvailabilityWithdrawn,
	}
}

// IsValid checks if the availability status is valid.
func (s AvailabilityStatus) IsValid() bool {
	for _, valid := range ValidAvailabilityStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Property is a listing managed by an agent. Numeric attributes are nullable;
// a nil value means the agent has not recorded it yet.
type Property struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	AgentID            uuid.UUID          `json:"agent_id" db:"agent_id"`
	ExternalRef        string             `json:"external_ref,omitempty" db:"external_ref"`
	Title              string             `json:"title" db:"title"`
	Address            string             `json:"address,omitempty" db:"address"`
	City               string             `json:"city,omitempty" db:"city"`
	PostalCode         string             `json:"postal_code,omitempty" db:"postal_code"`
	Price              *decimal.Decimal   `json:"price,omitempty" db:"price"`
	LivingAreaSqm      *int               `json:"living_area_sqm,omitempty" db:"living_area_sqm"`
	Rooms              *decimal.Decimal   `json:"rooms,omitempty" db:"rooms"`
	PropertyType       PropertyType       `json:"property_type,omitempty" db:"property_type"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status" db:"availability_status"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// IsAvailable reports whether the property can still be offered to clients.
func (p *Property) IsAvailable() bool {
	return p.AvailabilityStatus == AvailabilityAvailable
}

// PropertyCreate represents the data needed to create a new property.
type PropertyCreate struct {
	AgentID            uuid.UUID          `json:"agent_id"`
	ExternalRef        string             `json:"external_ref"`
	Title              string             `json:"title"`
	Address            string             `json:"address,omitempty"`
	City               string             `json:"city,omitempty"`
	PostalCode         string             `json:"postal_code,omitempty"`
	Price              *decimal.Decimal   `json:"price,omitempty"`
	LivingAreaSqm      *int               `json:"living_area_sqm,omitempty"`
	Rooms              *decimal.Decimal   `json:"rooms,omitempty"`
	PropertyType       PropertyType       `json:"property_type,omitempty"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status,omitempty"`
}

// PropertySummary is a lightweight view used in match digests.
type PropertySummary struct {
	ID           uuid.UUID        `json:"id"`
	Title        string           `json:"title"`
	City         string           `json:"city,omitempty"`
	PostalCode   string           `json:"postal_code,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	PropertyType PropertyType     `json:"property_type,omitempty"`
}

// ToSummary converts a Property to PropertySummary.
func (p *Property) ToSummary() PropertySummary {
	return PropertySummary{
		ID:           p.ID,
		Title:        p.Title,
		City:         p.City,
		PostalCode:   p.PostalCode,
		Price:        p.Price,
		PropertyType: p.PropertyType,
	}
}

// BulkInsertResult contains the results of a bulk insert operation.
type BulkInsertResult struct {
	InsertedCount int      `json:"inserted_count"`
	FailedCount   int      `json:"failed_count"`
	Errors        []string `json:"errors,omitempty"`
}
