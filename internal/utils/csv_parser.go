package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-matching-engine/internal/models"
)

// ListingCSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// RequiredListingColumns defines the columns that must be present in a listing CSV.
var RequiredListingColumns = []string{
	"external_ref",
	"title",
}

// ListingColumnAliases maps German and English export headers to standard names.
var ListingColumnAliases = map[string]string{
	// external_ref aliases
	"id":             "external_ref",
	"ref":            "external_ref",
	"reference":      "external_ref",
	"listing_id":     "external_ref",
	"objekt_nr":      "external_ref",
	"objektnr":       "external_ref",
	"objektnummer":   "external_ref",
	"external_id":    "external_ref",
	"externe_id":     "external_ref",
	"kennung":        "external_ref",
	"angebots_nr":    "external_ref",
	"angebotsnummer": "external_ref",

	// title aliases
	"titel":        "title",
	"bezeichnung":  "title",
	"name":         "title",
	"headline":     "title",
	"ueberschrift": "title",
	"überschrift":  "title",

	// address aliases
	"adresse": "address",
	"strasse": "address",
	"straße":  "address",
	"street":  "address",

	// city aliases
	"ort":   "city",
	"stadt": "city",
	"town":  "city",

	// postal_code aliases
	"plz":          "postal_code",
	"postleitzahl": "postal_code",
	"zip":          "postal_code",
	"zip_code":     "postal_code",
	"postcode":     "postal_code",

	// price aliases
	"preis":          "price",
	"kaufpreis":      "price",
	"purchase_price": "price",

	// living_area aliases
	"wohnflaeche":     "living_area",
	"wohnfläche":      "living_area",
	"flaeche":         "living_area",
	"fläche":          "living_area",
	"area":            "living_area",
	"living_area_sqm": "living_area",
	"sqm":             "living_area",

	// rooms aliases
	"zimmer":        "rooms",
	"anzahl_zimmer": "rooms",
	"zimmeranzahl":  "rooms",

	// property_type aliases
	"type":      "property_type",
	"typ":       "property_type",
	"objektart": "property_type",
	"objekttyp": "property_type",

	// availability_status aliases
	"status":          "availability_status",
	"availability":    "availability_status",
	"verfuegbarkeit":  "availability_status",
	"verfügbarkeit":   "availability_status",
	"vermarktungsart": "availability_status",
}

// ListingCSVParser handles parsing of listing export CSV files.
type ListingCSVParser struct {
	columnMapping map[string]int
}

// NewListingCSVParser creates a new listing CSV parser instance.
func NewListingCSVParser() *ListingCSVParser {
	return &ListingCSVParser{
		columnMapping: make(map[string]int),
	}
}

// ParseListings parses CSV content into listings owned by agentID. Rows that
// fail to parse or validate are reported per line and skipped.
func (p *ListingCSVParser) ParseListings(content string, agentID uuid.UUID) ([]*models.PropertyCreate, []error) {
	content = strings.TrimPrefix(content, "\ufeff")
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	var listings []*models.PropertyCreate
	var parseErrors []error
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}
		if isBlank(record) {
			continue
		}

		listing, err := p.parseRow(record, agentID)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		if err := models.ValidatePropertyCreate(listing); err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		listings = append(listings, listing)
	}

	if len(listings) == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return listings, parseErrors
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *ListingCSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)

	for i, col := range header {
		normalized := normalizeHeader(col)
		if alias, ok := ListingColumnAliases[normalized]; ok {
			normalized = alias
		}
		if _, seen := p.columnMapping[normalized]; !seen {
			p.columnMapping[normalized] = i
		}
	}

	var missing []string
	for _, required := range RequiredListingColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

// parseRow parses a single CSV row into a PropertyCreate object.
func (p *ListingCSVParser) parseRow(record []string, agentID uuid.UUID) (*models.PropertyCreate, error) {
	get := func(column string) string {
		idx, ok := p.columnMapping[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	listing := &models.PropertyCreate{
		AgentID:     agentID,
		ExternalRef: get("external_ref"),
		Title:       get("title"),
		Address:     get("address"),
		City:        get("city"),
		PostalCode:  get("postal_code"),
	}

	if v := get("price"); v != "" {
		price, err := ParseLocalizedDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", v, err)
		}
		listing.Price = &price
	}

	if v := get("living_area"); v != "" {
		area, err := ParseLocalizedDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("invalid living_area %q: %w", v, err)
		}
		sqm := int(area.Round(0).IntPart())
		listing.LivingAreaSqm = &sqm
	}

	if v := get("rooms"); v != "" {
		rooms, err := ParseLocalizedDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("invalid rooms %q: %w", v, err)
		}
		listing.Rooms = &rooms
	}

	if v := get("property_type"); v != "" {
		listing.PropertyType = models.NormalizePropertyType(v)
	}

	if v := get("availability_status"); v != "" {
		listing.AvailabilityStatus = models.NormalizeAvailability(v)
	}

	return listing, nil
}

// ParseLocalizedDecimal parses numbers as written in German and English
// exports: "389.000,50 €", "389,000.50", "3,5", "EUR 420000".
func ParseLocalizedDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, unit := range []string{"€", "EUR", "eur", "$", "m²", "sqm", "qm"} {
		s = strings.ReplaceAll(s, unit, "")
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", "'", "").Replace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty value")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The later separator is the decimal mark.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if isThousandsGrouped(s, ',') {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if isThousandsGrouped(s, '.') {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	return decimal.NewFromString(s)
}

// isThousandsGrouped reports whether every sep in s is followed by exactly
// three digits, as in "1.250.000" or "389,000".
func isThousandsGrouped(s string, sep byte) bool {
	groups := strings.Split(s, string(sep))
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func normalizeHeader(col string) string {
	normalized := strings.ToLower(strings.TrimSpace(col))
	normalized = strings.TrimPrefix(normalized, "\ufeff")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, ".", "")
	return normalized
}

// detectDelimiter picks ';' for the semicolon-separated exports common in
// German spreadsheet tools, ',' otherwise.
func detectDelimiter(content string) rune {
	firstLine, _, _ := strings.Cut(content, "\n")
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ValidateListingCSVStructure performs a quick validation of CSV structure without full parsing.
func ValidateListingCSVStructure(content string) *CSVValidationResult {
	result := &CSVValidationResult{
		Columns:        []string{},
		MissingColumns: []string{},
		Errors:         []string{},
	}

	content = strings.TrimPrefix(content, "\ufeff")
	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, "empty file")
		return result
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read header: %v", err))
		return result
	}

	normalizedColumns := make(map[string]bool)
	for _, col := range header {
		normalized := normalizeHeader(col)
		if alias, ok := ListingColumnAliases[normalized]; ok {
			normalized = alias
		}
		normalizedColumns[normalized] = true
		result.Columns = append(result.Columns, col)
	}

	for _, required := range RequiredListingColumns {
		if !normalizedColumns[required] {
			result.MissingColumns = append(result.MissingColumns, required)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row error: %v", err))
			continue
		}
		if !isBlank(record) {
			result.RowCount++
		}
	}

	result.Valid = len(result.MissingColumns) == 0 && result.RowCount > 0

	return result
}

// CSVValidationResult contains the results of CSV validation.
type CSVValidationResult struct {
	Valid          bool     `json:"valid"`
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}
