// Package models defines the data structures for the property matching engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Default matching parameters.
const (
	DefaultMatchThreshold  = 70
	DefaultMaxResults      = 50
	QuickMatchMaxResults   = 20
	DefaultPriceWeight     = 30
	DefaultLocationWeight  = 25
	DefaultAreaWeight      = 20
	DefaultRoomWeight      = 15
	DefaultFeatureWeight   = 10
	BudgetTolerancePercent = 10
	AreaTolerancePercent   = 15
)

// CandidateType identifies what a MatchResult refers to.
type CandidateType string

const (
	CandidateTypeProperty CandidateType = "property"
	CandidateTypeClient   CandidateType = "client"
)

// MatchConfig controls one matching run.
type MatchConfig struct {
	MatchThreshold         int  `json:"match_threshold"`
	MaxResults             int  `json:"max_results"`
	PriceWeight            int  `json:"price_weight"`
	LocationWeight         int  `json:"location_weight"`
	AreaWeight             int  `json:"area_weight"`
	RoomWeight             int  `json:"room_weight"`
	FeatureWeight          int  `json:"feature_weight"`
	AllowBudgetFlexibility bool `json:"allow_budget_flexibility"`
	ExactLocationMatch     bool `json:"exact_location_match"`
	IncludeUnavailable     bool `json:"include_unavailable"`
}

// DefaultMatchConfig returns the configuration used by the full matching endpoints.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MatchThreshold:         DefaultMatchThreshold,
		MaxResults:             DefaultMaxResults,
		PriceWeight:            DefaultPriceWeight,
		LocationWeight:         DefaultLocationWeight,
		AreaWeight:             DefaultAreaWeight,
		RoomWeight:             DefaultRoomWeight,
		FeatureWeight:          DefaultFeatureWeight,
		AllowBudgetFlexibility: true,
	}
}

// QuickMatchConfig is DefaultMatchConfig with the smaller quick-match result cap.
func QuickMatchConfig() MatchConfig {
	cfg := DefaultMatchConfig()
	cfg.MaxResults = QuickMatchMaxResults
	return cfg
}

// MatchOptions is the request form of MatchConfig. Only non-nil fields
// override the defaults they are applied to.
type MatchOptions struct {
	MatchThreshold         *int  `json:"match_threshold,omitempty"`
	MaxResults             *int  `json:"max_results,omitempty"`
	PriceWeight            *int  `json:"price_weight,omitempty"`
	LocationWeight         *int  `json:"location_weight,omitempty"`
	AreaWeight             *int  `json:"area_weight,omitempty"`
	RoomWeight             *int  `json:"room_weight,omitempty"`
	FeatureWeight          *int  `json:"feature_weight,omitempty"`
	AllowBudgetFlexibility *bool `json:"allow_budget_flexibility,omitempty"`
	ExactLocationMatch     *bool `json:"exact_location_match,omitempty"`
	IncludeUnavailable     *bool `json:"include_unavailable,omitempty"`
}

// Apply overlays the set options onto base and returns the result.
func (o *MatchOptions) Apply(base MatchConfig) MatchConfig {
	if o == nil {
		return base
	}
	setInt(&base.MatchThreshold, o.MatchThreshold)
	setInt(&base.MaxResults, o.MaxResults)
	setInt(&base.PriceWeight, o.PriceWeight)
	setInt(&base.LocationWeight, o.LocationWeight)
	setInt(&base.AreaWeight, o.AreaWeight)
	setInt(&base.RoomWeight, o.RoomWeight)
	setInt(&base.FeatureWeight, o.FeatureWeight)
	if o.AllowBudgetFlexibility != nil {
		base.AllowBudgetFlexibility = *o.AllowBudgetFlexibility
	}
	if o.ExactLocationMatch != nil {
		base.ExactLocationMatch = *o.ExactLocationMatch
	}
	if o.IncludeUnavailable != nil {
		base.IncludeUnavailable = *o.IncludeUnavailable
	}
	return base
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// MatchRequest selects one matching mode. Exactly one of ClientID,
// PropertyID or Criteria must be set.
type MatchRequest struct {
	ClientID   *uuid.UUID      `json:"client_id,omitempty"`
	PropertyID *uuid.UUID      `json:"property_id,omitempty"`
	Criteria   *SearchCriteria `json:"criteria,omitempty"`
	Options    *MatchOptions   `json:"options,omitempty"`
}

// ScoreBreakdown holds the per-axis scores, each in [0, 100].
type ScoreBreakdown struct {
	Price    int `json:"price"`
	Location int `json:"location"`
	Area     int `json:"area"`
	Rooms    int `json:"rooms"`
	Features int `json:"features"`
}

// MatchResult is one scored candidate.
type MatchResult struct {
	CandidateID     uuid.UUID      `json:"candidate_id"`
	CandidateType   CandidateType  `json:"candidate_type"`
	CandidateName   string         `json:"candidate_name,omitempty"`
	OverallScore    int            `json:"overall_score"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	MatchReasons    []string       `json:"match_reasons"`
	MismatchReasons []string       `json:"mismatch_reasons"`
}

// MatchResponse is the ranked outcome of a matching run.
type MatchResponse struct {
	Matches          []MatchResult `json:"matches"`
	TotalMatches     int           `json:"total_matches"`
	ReturnedMatches  int           `json:"returned_matches"`
	MatchThreshold   int           `json:"match_threshold"`
	ProcessingTime   time.Duration `json:"-"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// MatchReport is a stored snapshot of one matching run.
type MatchReport struct {
	AgentID     uuid.UUID      `json:"agent_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Request     MatchRequest   `json:"request"`
	Config      MatchConfig    `json:"config"`
	Response    *MatchResponse `json:"response"`
}
