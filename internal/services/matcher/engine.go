package matcher

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"property-matching-engine/internal/models"
)

// Default engine settings.
const (
	DefaultParallelThreshold = 200
	DefaultWorkers           = 4
)

// Engine ranks candidates in memory. It keeps no per-request state and is
// safe for concurrent use.
type Engine struct {
	workers           int
	parallelThreshold int
}

// NewEngine creates an engine that scores sets of at least parallelThreshold
// candidates on up to workers goroutines. Smaller sets are scored inline.
func NewEngine(workers, parallelThreshold int) *Engine {
	if workers < 1 {
		workers = 1
	}
	if parallelThreshold < 1 {
		parallelThreshold = DefaultParallelThreshold
	}
	return &Engine{workers: workers, parallelThreshold: parallelThreshold}
}

// ScoreCandidatesForCriteria ranks properties against one set of criteria.
// Properties that are not available are skipped unless cfg.IncludeUnavailable.
func (e *Engine) ScoreCandidatesForCriteria(ctx context.Context, properties []models.Property, criteria models.SearchCriteria, cfg models.MatchConfig) (*models.MatchResponse, error) {
	start := time.Now()

	candidates := make([]*models.Property, 0, len(properties))
	for i := range properties {
		if !cfg.IncludeUnavailable && !properties[i].IsAvailable() {
			continue
		}
		candidates = append(candidates, &properties[i])
	}

	w := newWeightSet(cfg)
	results, err := e.scoreAll(ctx, len(candidates), func(i int) models.MatchResult {
		p := candidates[i]
		return scorePair(listingFromProperty(p), &criteria, cfg, w).result(propertyCandidate(p))
	})
	if err != nil {
		return nil, err
	}

	return rank(results, cfg, start), nil
}

// ScoreClientsForProperty ranks clients by how well the property fits each
// client's criteria. The property's availability is not checked here.
func (e *Engine) ScoreClientsForProperty(ctx context.Context, clients []models.ClientWithCriteria, property models.Property, cfg models.MatchConfig) (*models.MatchResponse, error) {
	start := time.Now()

	l := listingFromProperty(&property)
	w := newWeightSet(cfg)
	results, err := e.scoreAll(ctx, len(clients), func(i int) models.MatchResult {
		c := &clients[i]
		return scorePair(l, &c.Criteria, cfg, w).result(clientCandidate(c))
	})
	if err != nil {
		return nil, err
	}

	return rank(results, cfg, start), nil
}

// scoreAll evaluates score for every index in [0, n). Results keep index
// order whether or not the work was split across goroutines.
func (e *Engine) scoreAll(ctx context.Context, n int, score func(i int) models.MatchResult) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, n)

	if n < e.parallelThreshold || e.workers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = score(i)
		}
		return results, nil
	}

	chunk := (n + e.workers - 1) / e.workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = score(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// rank drops results under the threshold, orders the rest by score and caps
// the list at cfg.MaxResults. Equal scores keep their input order.
func rank(results []models.MatchResult, cfg models.MatchConfig, start time.Time) *models.MatchResponse {
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = models.DefaultMaxResults
	}

	kept := make([]models.MatchResult, 0, len(results))
	for _, r := range results {
		if r.OverallScore >= cfg.MatchThreshold {
			kept = append(kept, r)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].OverallScore > kept[j].OverallScore
	})

	total := len(kept)
	if len(kept) > limit {
		kept = kept[:limit]
	}

	elapsed := time.Since(start)
	return &models.MatchResponse{
		Matches:          kept,
		TotalMatches:     total,
		ReturnedMatches:  len(kept),
		MatchThreshold:   cfg.MatchThreshold,
		ProcessingTime:   elapsed,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
}
