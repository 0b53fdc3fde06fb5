package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-matching-engine/internal/models"
)

var testAgentID = uuid.MustParse("6f1c2f9e-1d3a-4c55-9a4e-0b7d2f1e3a10")

func TestListingCSVParser_GermanExport(t *testing.T) {
	csvContent := "Objekt-Nr.;Titel;PLZ;Ort;Kaufpreis;Wohnfläche;Zimmer;Objektart;Status\n" +
		"W-101;Altbauwohnung;80331;München;389.000,50 €;92,4;3,5;Etagenwohnung;verfügbar\n" +
		"H-7;Reihenhaus am See;82319;Starnberg;1.250.000;145;5;Reihenhaus;reserviert\n"

	parser := NewListingCSVParser()
	listings, errs := parser.ParseListings(csvContent, testAgentID)

	require.Empty(t, errs, "Expected no parse errors")
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, testAgentID, first.AgentID)
	assert.Equal(t, "W-101", first.ExternalRef)
	assert.Equal(t, "Altbauwohnung", first.Title)
	assert.Equal(t, "80331", first.PostalCode)
	assert.Equal(t, "München", first.City)
	require.NotNil(t, first.Price)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("389000.50")), first.Price.String())
	require.NotNil(t, first.LivingAreaSqm)
	assert.Equal(t, 92, *first.LivingAreaSqm)
	require.NotNil(t, first.Rooms)
	assert.True(t, first.Rooms.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, models.PropertyTypeApartment, first.PropertyType)
	assert.Equal(t, models.AvailabilityAvailable, first.AvailabilityStatus)

	second := listings[1]
	assert.True(t, second.Price.Equal(decimal.NewFromInt(1250000)))
	assert.Equal(t, models.PropertyTypeTownhouse, second.PropertyType)
	assert.Equal(t, models.AvailabilityReserved, second.AvailabilityStatus)
}

func TestListingCSVParser_EnglishAliases(t *testing.T) {
	csvContent := `id,title,city,postal_code,price,living_area_sqm,rooms,type
A-1,Loft,Berlin,10115,"$389,000.00",80,2,apartment`

	parser := NewListingCSVParser()
	listings, errs := parser.ParseListings(csvContent, testAgentID)

	require.Empty(t, errs)
	require.Len(t, listings, 1)

	assert.Equal(t, "A-1", listings[0].ExternalRef)
	assert.True(t, listings[0].Price.Equal(decimal.NewFromInt(389000)))
	assert.Equal(t, 80, *listings[0].LivingAreaSqm)
	assert.Empty(t, listings[0].AvailabilityStatus)
}

func TestListingCSVParser_RowErrors(t *testing.T) {
	csvContent := `id,title,city,price,type
A-1,Good,Berlin,400000,house
,No ref,Berlin,1,house
A-3,Bad price,Berlin,abc,house
A-4,Negative,Berlin,-5,house
A-5,,Berlin,1,house
A-6,Castle,Berlin,1,castle`

	parser := NewListingCSVParser()
	listings, errs := parser.ParseListings(csvContent, testAgentID)

	require.Len(t, listings, 1)
	assert.Equal(t, "A-1", listings[0].ExternalRef)

	require.Len(t, errs, 5)
	assert.ErrorIs(t, errs[0], models.ErrEmptyExternalRef)
	assert.ErrorContains(t, errs[0], "line 3")
	assert.ErrorContains(t, errs[1], "invalid price")
	assert.ErrorIs(t, errs[2], models.ErrNegativePrice)
	assert.ErrorIs(t, errs[3], models.ErrEmptyTitle)
	assert.ErrorIs(t, errs[4], models.ErrInvalidPropertyType)
	assert.ErrorContains(t, errs[4], "line 7")
}

func TestListingCSVParser_MissingRequiredColumns(t *testing.T) {
	csvContent := `city,price
Berlin,400000`

	parser := NewListingCSVParser()
	listings, errs := parser.ParseListings(csvContent, testAgentID)

	assert.Empty(t, listings)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMissingColumns)
	assert.ErrorContains(t, errs[0], "external_ref, title")
}

func TestListingCSVParser_EmptyAndHeaderOnly(t *testing.T) {
	parser := NewListingCSVParser()

	listings, errs := parser.ParseListings("", testAgentID)
	assert.Empty(t, listings)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrEmptyCSV)

	listings, errs = parser.ParseListings("id,title,city", testAgentID)
	assert.Empty(t, listings)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], ErrNoDataRows)
}

func TestParseLocalizedDecimal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"389.000,50 €", "389000.5"},
		{"389,000.50", "389000.5"},
		{"3,5", "3.5"},
		{"3.5", "3.5"},
		{"12,34", "12.34"},
		{"EUR 420000", "420000"},
		{"1.250.000", "1250000"},
		{"1 250 000", "1250000"},
		{"92 m²", "92"},
		{"-5", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLocalizedDecimal(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}

	for _, bad := range []string{"", "  ", "n/a", "€"} {
		_, err := ParseLocalizedDecimal(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateListingCSVStructure(t *testing.T) {
	valid := ValidateListingCSVStructure("Objektnummer;Titel;Ort\nW-1;Wohnung;Köln\nW-2;Haus;Bonn\n")
	assert.True(t, valid.Valid)
	assert.Equal(t, 2, valid.RowCount)
	assert.Empty(t, valid.MissingColumns)
	assert.Equal(t, []string{"Objektnummer", "Titel", "Ort"}, valid.Columns)

	missing := ValidateListingCSVStructure("id,city\nW-1,Köln\n")
	assert.False(t, missing.Valid)
	assert.Equal(t, []string{"title"}, missing.MissingColumns)

	empty := ValidateListingCSVStructure("")
	assert.False(t, empty.Valid)
	assert.Equal(t, []string{"empty file"}, empty.Errors)
}
