package matcher

import (
	"github.com/shopspring/decimal"

	"property-matching-engine/internal/models"
)

// axis indexes the five scoring dimensions in breakdown order.
type axis int

const (
	axisPrice axis = iota
	axisLocation
	axisArea
	axisRooms
	axisFeatures
	axisCount
)

// WeightFractions are the normalized axis weights. They sum to 1.
type WeightFractions struct {
	Price    float64 `json:"price"`
	Location float64 `json:"location"`
	Area     float64 `json:"area"`
	Rooms    float64 `json:"rooms"`
	Features float64 `json:"features"`
}

// Sum adds up all five fractions.
func (w WeightFractions) Sum() float64 {
	return w.Price + w.Location + w.Area + w.Rooms + w.Features
}

// NormalizeWeights turns the raw weights of cfg into fractions of their sum.
// Negative weights count as zero. When every weight is zero the axes share
// equally.
func NormalizeWeights(cfg models.MatchConfig) WeightFractions {
	w := newWeightSet(cfg)
	return WeightFractions{
		Price:    w.fraction(axisPrice).InexactFloat64(),
		Location: w.fraction(axisLocation).InexactFloat64(),
		Area:     w.fraction(axisArea).InexactFloat64(),
		Rooms:    w.fraction(axisRooms).InexactFloat64(),
		Features: w.fraction(axisFeatures).InexactFloat64(),
	}
}

// weightSet keeps the clamped raw weights so that combining divides once.
type weightSet struct {
	raw [axisCount]int64
	sum int64
}

func newWeightSet(cfg models.MatchConfig) weightSet {
	w := weightSet{raw: [axisCount]int64{
		axisPrice:    int64(cfg.PriceWeight),
		axisLocation: int64(cfg.LocationWeight),
		axisArea:     int64(cfg.AreaWeight),
		axisRooms:    int64(cfg.RoomWeight),
		axisFeatures: int64(cfg.FeatureWeight),
	}}

	for i, v := range w.raw {
		if v < 0 {
			w.raw[i] = 0
			continue
		}
		w.sum += v
	}

	if w.sum == 0 {
		for i := range w.raw {
			w.raw[i] = 1
		}
		w.sum = int64(axisCount)
	}
	return w
}

func (w weightSet) fraction(a axis) decimal.Decimal {
	return decimal.NewFromInt(w.raw[a]).Div(decimal.NewFromInt(w.sum))
}

// combine weights the axis scores and rounds half-up once.
func (w weightSet) combine(b models.ScoreBreakdown) int {
	scores := [axisCount]int64{
		axisPrice:    int64(b.Price),
		axisLocation: int64(b.Location),
		axisArea:     int64(b.Area),
		axisRooms:    int64(b.Rooms),
		axisFeatures: int64(b.Features),
	}

	var total int64
	for i, s := range scores {
		total += s * w.raw[i]
	}
	return toScore(decimal.NewFromInt(total).Div(decimal.NewFromInt(w.sum)))
}
