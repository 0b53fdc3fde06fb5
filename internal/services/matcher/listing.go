package matcher

import (
	"github.com/shopspring/decimal"

	"property-matching-engine/internal/models"
)

// listing is the attribute tuple every score is computed from. Both matching
// directions reduce to scoring a listing against one set of criteria.
type listing struct {
	price        *decimal.Decimal
	areaSqm      *int
	rooms        *decimal.Decimal
	city         string
	postalCode   string
	propertyType models.PropertyType
}

func listingFromProperty(p *models.Property) listing {
	return listing{
		price:        p.Price,
		areaSqm:      p.LivingAreaSqm,
		rooms:        p.Rooms,
		city:         p.City,
		postalCode:   p.PostalCode,
		propertyType: p.PropertyType,
	}
}

// pairScore is the outcome of scoring one listing against one criteria set.
type pairScore struct {
	overall   int
	breakdown models.ScoreBreakdown
	reasons   reasons
}

func scorePair(l listing, c *models.SearchCriteria, cfg models.MatchConfig, w weightSet) pairScore {
	var ps pairScore
	r := &ps.reasons

	ps.breakdown = models.ScoreBreakdown{
		Price:    scorePrice(l.price, c, cfg, r),
		Location: scoreLocation(l.city, l.postalCode, c, cfg, r),
		Area:     scoreArea(l.areaSqm, c, r),
		Rooms:    scoreRooms(l.rooms, c, r),
		Features: scoreFeatures(l.propertyType, c, r),
	}
	ps.overall = w.combine(ps.breakdown)
	return ps
}

func (ps pairScore) result(base models.MatchResult) models.MatchResult {
	base.OverallScore = ps.overall
	base.Breakdown = ps.breakdown
	base.MatchReasons = nonNil(ps.reasons.match)
	base.MismatchReasons = nonNil(ps.reasons.mismatch)
	return base
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// propertyCandidate adapts a property for the forward direction.
func propertyCandidate(p *models.Property) models.MatchResult {
	return models.MatchResult{
		CandidateID:   p.ID,
		CandidateType: models.CandidateTypeProperty,
		CandidateName: p.Title,
	}
}

// clientCandidate adapts a client for the inverted direction.
func clientCandidate(c *models.ClientWithCriteria) models.MatchResult {
	return models.MatchResult{
		CandidateID:   c.ID,
		CandidateType: models.CandidateTypeClient,
		CandidateName: c.FullName(),
	}
}
