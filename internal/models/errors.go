// Package models defines the data structures for the property matching engine.
package models

import (
	"errors"
	"strings"
)

// Matching errors
var (
	ErrMissingCriteria  = errors.New("client has no search criteria")
	ErrInvalidRequest   = errors.New("invalid match request")
	ErrClientNotFound   = errors.New("client not found")
	ErrPropertyNotFound = errors.New("property not found")
	ErrAgentNotFound    = errors.New("agent not found")
)

// Listing validation errors
var (
	ErrEmptyExternalRef      = errors.New("external_ref cannot be empty")
	ErrEmptyTitle            = errors.New("title cannot be empty")
	ErrInvalidPropertyType   = errors.New("invalid property type")
	ErrInvalidAvailability   = errors.New("invalid availability status")
	ErrNegativePrice         = errors.New("price cannot be negative")
	ErrNegativeArea          = errors.New("living area cannot be negative")
	ErrNegativeRooms         = errors.New("rooms cannot be negative")
	ErrInvalidPostalCode     = errors.New("postal code must be 5 digits")
	ErrMissingListingAddress = errors.New("either city or postal code is required")
)

// NormalizePropertyType converts the labels agents use in exports and
// spreadsheets (German and English) to standard values.
func NormalizePropertyType(value string) PropertyType {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	typeMap := map[string]PropertyType{
		"apartment":          PropertyTypeApartment,
		"flat":               PropertyTypeApartment,
		"condo":              PropertyTypeApartment,
		"wohnung":            PropertyTypeApartment,
		"etagenwohnung":      PropertyTypeApartment,
		"eigentumswohnung":   PropertyTypeApartment,
		"penthouse":          PropertyTypeApartment,
		"house":              PropertyTypeHouse,
		"haus":               PropertyTypeHouse,
		"einfamilienhaus":    PropertyTypeHouse,
		"single_family":      PropertyTypeHouse,
		"detached":           PropertyTypeHouse,
		"multi_family_house": PropertyTypeMultiFamilyHouse,
		"multi_family":       PropertyTypeMultiFamilyHouse,
		"mehrfamilienhaus":   PropertyTypeMultiFamilyHouse,
		"townhouse":          PropertyTypeTownhouse,
		"reihenhaus":         PropertyTypeTownhouse,
		"doppelhaushaelfte":  PropertyTypeTownhouse,
		"doppelhaushälfte":   PropertyTypeTownhouse,
		"commercial":         PropertyTypeCommercial,
		"gewerbe":            PropertyTypeCommercial,
		"buero":              PropertyTypeCommercial,
		"büro":               PropertyTypeCommercial,
		"office":             PropertyTypeCommercial,
		"land":               PropertyTypeLand,
		"plot":               PropertyTypeLand,
		"grundstueck":        PropertyTypeLand,
		"grundstück":         PropertyTypeLand,
		"other":              PropertyTypeOther,
		"sonstige":           PropertyTypeOther,
	}

	if mapped, ok := typeMap[normalized]; ok {
		return mapped
	}

	// Return upper-cased as-is if no mapping found (will fail validation)
	return PropertyType(strings.ToUpper(normalized))
}

// NormalizeAvailability converts German and English availability labels to
// standard values.
func NormalizeAvailability(value string) AvailabilityStatus {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "_")

	statusMap := map[string]AvailabilityStatus{
		"available":      AvailabilityAvailable,
		"active":         AvailabilityAvailable,
		"verfuegbar":     AvailabilityAvailable,
		"verfügbar":      AvailabilityAvailable,
		"frei":           AvailabilityAvailable,
		"reserved":       AvailabilityReserved,
		"reserviert":     AvailabilityReserved,
		"sold":           AvailabilitySold,
		"verkauft":       AvailabilitySold,
		"rented":         AvailabilityRented,
		"vermietet":      AvailabilityRented,
		"withdrawn":      AvailabilityWithdrawn,
		"inactive":       AvailabilityWithdrawn,
		"zurueckgezogen": AvailabilityWithdrawn,
		"zurückgezogen":  AvailabilityWithdrawn,
	}

	if mapped, ok := statusMap[normalized]; ok {
		return mapped
	}

	return AvailabilityStatus(strings.ToUpper(normalized))
}

// ValidatePropertyCreate validates property creation data.
func ValidatePropertyCreate(p *PropertyCreate) error {
	if strings.TrimSpace(p.ExternalRef) == "" {
		return ErrEmptyExternalRef
	}

	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}

	if strings.TrimSpace(p.City) == "" && strings.TrimSpace(p.PostalCode) == "" {
		return ErrMissingListingAddress
	}

	if p.PostalCode != "" && !IsPostalCode(p.PostalCode) {
		return ErrInvalidPostalCode
	}

	if p.Price != nil && p.Price.IsNegative() {
		return ErrNegativePrice
	}

	if p.LivingAreaSqm != nil && *p.LivingAreaSqm < 0 {
		return ErrNegativeArea
	}

	if p.Rooms != nil && p.Rooms.IsNegative() {
		return ErrNegativeRooms
	}

	if p.PropertyType != "" && !p.PropertyType.IsValid() {
		return ErrInvalidPropertyType
	}

	if p.AvailabilityStatus != "" && !p.AvailabilityStatus.IsValid() {
		return ErrInvalidAvailability
	}

	return nil
}

// IsPostalCode reports whether s has the shape of a German postal code.
func IsPostalCode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
