package matcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"property-matching-engine/internal/models"
)

const (
	fullScore       = 100
	neutralScore    = 50
	belowBudget     = 30
	toleranceScore  = 85
	nearbyScore     = 80
	closeRoomsScore = 75

	// postalCodeRadius is the largest numeric postal code distance still
	// counted as nearby.
	postalCodeRadius = 50
)

var (
	zero    = decimal.Zero
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	ten     = decimal.NewFromInt(10)
	twenty  = decimal.NewFromInt(20)
	fifty   = decimal.NewFromInt(neutralScore)
	hundred = decimal.NewFromInt(fullScore)

	budgetTolerance = decimal.NewFromInt(100 + models.BudgetTolerancePercent).Div(hundred)
	areaTolerance   = decimal.NewFromInt(100 + models.AreaTolerancePercent).Div(hundred)
)

// reasons collects the human readable notes produced while scoring.
type reasons struct {
	match    []string
	mismatch []string
}

func (r *reasons) good(format string, args ...interface{}) {
	r.match = append(r.match, fmt.Sprintf(format, args...))
}

func (r *reasons) bad(format string, args ...interface{}) {
	r.mismatch = append(r.mismatch, fmt.Sprintf(format, args...))
}

// toScore clamps d to [0, 100] and rounds half-up.
func toScore(d decimal.Decimal) int {
	if d.LessThan(zero) {
		return 0
	}
	if d.GreaterThan(hundred) {
		return fullScore
	}
	return int(d.Round(0).IntPart())
}

// percentDiff returns |value - bound| as a percentage of bound, rounded to
// four places. ok is false when bound is not positive.
func percentDiff(value, bound decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if !bound.IsPositive() {
		return zero, false
	}
	return value.Sub(bound).Abs().Div(bound).Mul(hundred).Round(4), true
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixedBank(0)
}

func scorePrice(price *decimal.Decimal, c *models.SearchCriteria, cfg models.MatchConfig, r *reasons) int {
	if c.MinBudget == nil && c.MaxBudget == nil {
		r.good("No budget constraint")
		return fullScore
	}
	if price == nil {
		r.bad("Price not specified")
		return neutralScore
	}

	p := *price
	if c.MaxBudget != nil && p.GreaterThan(*c.MaxBudget) {
		return scoreOverBudget(p, *c.MaxBudget, cfg.AllowBudgetFlexibility, r)
	}
	if c.MinBudget != nil && p.LessThan(*c.MinBudget) {
		r.bad("Price %s below minimum budget %s", formatMoney(p), formatMoney(*c.MinBudget))
		return belowBudget
	}

	r.good("Price %s within budget", formatMoney(p))
	return fullScore
}

func scoreOverBudget(price, maxBudget decimal.Decimal, flexible bool, r *reasons) int {
	pct, ok := percentDiff(price, maxBudget)
	if !ok {
		r.bad("Price %s exceeds budget %s", formatMoney(price), formatMoney(maxBudget))
		return 0
	}

	if flexible && price.LessThanOrEqual(maxBudget.Mul(budgetTolerance)) {
		r.good("Slightly over budget by %s%% (within %d%% tolerance)", pct.StringFixed(1), models.BudgetTolerancePercent)
		return toleranceScore
	}

	var score decimal.Decimal
	if pct.LessThanOrEqual(twenty) {
		score = decimal.Max(fifty, hundred.Sub(pct))
		// Past the tolerance band a price never scores above the band itself.
		if flexible {
			score = decimal.Min(score, decimal.NewFromInt(toleranceScore))
		}
	} else {
		score = decimal.Max(zero, fifty.Sub(pct.Sub(twenty)))
	}

	r.bad("Over budget by %s%%", pct.StringFixed(1))
	return toScore(score)
}

func scoreLocation(city, postalCode string, c *models.SearchCriteria, cfg models.MatchConfig, r *reasons) int {
	preferred := cleanLocations(c.PreferredLocations)
	if len(preferred) == 0 {
		r.good("No location preference")
		return fullScore
	}

	city = strings.TrimSpace(city)
	postalCode = strings.TrimSpace(postalCode)
	if city == "" && postalCode == "" {
		r.bad("Location not specified")
		return neutralScore
	}

	for _, loc := range preferred {
		if city != "" && strings.EqualFold(loc, city) {
			r.good("Located in preferred location %s", city)
			return fullScore
		}
		if postalCode != "" && loc == postalCode {
			r.good("Located in preferred postal code %s", postalCode)
			return fullScore
		}
	}

	if !cfg.ExactLocationMatch && postalCode != "" {
		if code, err := strconv.Atoi(postalCode); err == nil {
			for _, loc := range preferred {
				if !looksLikePostalCode(loc) {
					continue
				}
				want, err := strconv.Atoi(loc)
				if err != nil {
					continue
				}
				if abs(code-want) <= postalCodeRadius {
					r.good("Near preferred location %s", loc)
					return nearbyScore
				}
			}
		}
	}

	r.bad("Location %s not in preferred locations", describeLocation(city, postalCode))
	return 0
}

func cleanLocations(locations []string) []string {
	out := make([]string, 0, len(locations))
	for _, loc := range locations {
		if loc = strings.TrimSpace(loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// looksLikePostalCode matches five character entries starting with a digit.
// Entries like "8033A" pass here and are dropped when they fail to parse.
func looksLikePostalCode(s string) bool {
	return len(s) == 5 && s[0] >= '0' && s[0] <= '9'
}

func describeLocation(city, postalCode string) string {
	switch {
	case city != "" && postalCode != "":
		return postalCode + " " + city
	case city != "":
		return city
	default:
		return postalCode
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func scoreArea(area *int, c *models.SearchCriteria, r *reasons) int {
	if c.MinAreaSqm == nil && c.MaxAreaSqm == nil {
		r.good("No area constraint")
		return fullScore
	}
	if area == nil {
		r.bad("Living area not specified")
		return neutralScore
	}

	a := decimal.NewFromInt(int64(*area))
	if c.MaxAreaSqm != nil && *area > *c.MaxAreaSqm {
		maxArea := decimal.NewFromInt(int64(*c.MaxAreaSqm))
		if a.LessThanOrEqual(maxArea.Mul(areaTolerance)) {
			r.good("Living area %d sqm slightly above maximum %d sqm", *area, *c.MaxAreaSqm)
			return toleranceScore
		}
		pct, ok := percentDiff(a, maxArea)
		if !ok {
			r.bad("Living area %d sqm exceeds maximum %d sqm", *area, *c.MaxAreaSqm)
			return 0
		}
		r.bad("Living area %d sqm is %s%% above maximum", *area, pct.StringFixed(1))
		return toScore(hundred.Sub(pct))
	}
	if c.MinAreaSqm != nil && *area < *c.MinAreaSqm {
		pct, ok := percentDiff(a, decimal.NewFromInt(int64(*c.MinAreaSqm)))
		if !ok {
			r.bad("Living area %d sqm below minimum %d sqm", *area, *c.MinAreaSqm)
			return 0
		}
		r.bad("Living area %d sqm is %s%% below minimum", *area, pct.StringFixed(1))
		return toScore(hundred.Sub(pct))
	}

	r.good("Living area %d sqm within range", *area)
	return fullScore
}

func scoreRooms(rooms *decimal.Decimal, c *models.SearchCriteria, r *reasons) int {
	if c.MinRooms == nil && c.MaxRooms == nil {
		r.good("No room constraint")
		return fullScore
	}
	if rooms == nil {
		r.bad("Room count not specified")
		return neutralScore
	}

	n := *rooms
	var excess decimal.Decimal
	switch {
	case c.MaxRooms != nil && n.GreaterThan(*c.MaxRooms):
		excess = n.Sub(*c.MaxRooms)
	case c.MinRooms != nil && n.LessThan(*c.MinRooms):
		excess = c.MinRooms.Sub(n)
	default:
		r.good("%s rooms within range", n.String())
		return fullScore
	}

	switch {
	case excess.LessThanOrEqual(one):
		r.good("%s rooms close to preferred range", n.String())
		return closeRoomsScore
	case excess.LessThanOrEqual(two):
		r.bad("%s rooms is %s outside preferred range", n.String(), excess.String())
		return neutralScore
	default:
		r.bad("%s rooms is %s outside preferred range", n.String(), excess.String())
		penalty := excess.Truncate(0).Sub(two).Mul(ten)
		return toScore(fifty.Sub(penalty))
	}
}

func scoreFeatures(propertyType models.PropertyType, c *models.SearchCriteria, r *reasons) int {
	if len(c.PropertyTypes) == 0 {
		r.good("No property type preference")
		return fullScore
	}
	if strings.TrimSpace(string(propertyType)) == "" {
		r.bad("Property type not specified")
		return neutralScore
	}

	for _, want := range c.PropertyTypes {
		if strings.EqualFold(string(want), string(propertyType)) {
			r.good("Property type %s matches", propertyType)
			return fullScore
		}
	}

	r.bad("Property type %s not in preferred types", propertyType)
	return 0
}
