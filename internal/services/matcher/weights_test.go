package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"property-matching-engine/internal/models"
)

func weightConfig(price, location, area, rooms, features int) models.MatchConfig {
	cfg := models.DefaultMatchConfig()
	cfg.PriceWeight = price
	cfg.LocationWeight = location
	cfg.AreaWeight = area
	cfg.RoomWeight = rooms
	cfg.FeatureWeight = features
	return cfg
}

func TestNormalizeWeights_Defaults(t *testing.T) {
	w := NormalizeWeights(models.DefaultMatchConfig())

	assert.InDelta(t, 0.30, w.Price, 1e-9)
	assert.InDelta(t, 0.25, w.Location, 1e-9)
	assert.InDelta(t, 0.20, w.Area, 1e-9)
	assert.InDelta(t, 0.15, w.Rooms, 1e-9)
	assert.InDelta(t, 0.10, w.Features, 1e-9)
}

func TestNormalizeWeights_AllZero(t *testing.T) {
	cfg := weightConfig(0, 0, 0, 0, 0)
	w := NormalizeWeights(cfg)

	for _, f := range []float64{w.Price, w.Location, w.Area, w.Rooms, w.Features} {
		assert.InDelta(t, 0.2, f, 1e-9)
	}

	perfect := models.ScoreBreakdown{Price: 100, Location: 100, Area: 100, Rooms: 100, Features: 100}
	assert.Equal(t, 100, newWeightSet(cfg).combine(perfect))
}

func TestNormalizeWeights_SumToOne(t *testing.T) {
	tuples := [][5]int{
		{30, 25, 20, 15, 10},
		{1, 1, 1, 0, 0},
		{7, 3, 0, 0, 1},
		{100, 0, 0, 0, 0},
		{1, 1, 1, 1, 1},
		{3, 3, 3, 0, 0},
		{999, 1, 13, 7, 2},
	}

	for _, tp := range tuples {
		w := NormalizeWeights(weightConfig(tp[0], tp[1], tp[2], tp[3], tp[4]))
		assert.InDelta(t, 1.0, w.Sum(), 1e-9, "weights %v", tp)
	}
}

func TestNormalizeWeights_NegativeCountsAsZero(t *testing.T) {
	w := NormalizeWeights(weightConfig(-5, 10, 10, 0, 0))

	assert.Equal(t, 0.0, w.Price)
	assert.InDelta(t, 0.5, w.Location, 1e-9)
	assert.InDelta(t, 0.5, w.Area, 1e-9)
}

func TestCombine_RoundsHalfUpOnce(t *testing.T) {
	w := newWeightSet(weightConfig(1, 1, 0, 0, 0))

	assert.Equal(t, 93, w.combine(models.ScoreBreakdown{Price: 100, Location: 85}))
	assert.Equal(t, 1, w.combine(models.ScoreBreakdown{Price: 1, Location: 0}))
	assert.Equal(t, 0, w.combine(models.ScoreBreakdown{Area: 100, Rooms: 100, Features: 100}))
}

func TestCombine_DefaultWeights(t *testing.T) {
	w := newWeightSet(models.DefaultMatchConfig())

	// 85*.30 + 80*.25 + 100*.20 + 50*.15 + 0*.10 = 73
	b := models.ScoreBreakdown{Price: 85, Location: 80, Area: 100, Rooms: 50, Features: 0}
	assert.Equal(t, 73, w.combine(b))
}
