// Package matcher scores properties against client search criteria and
// clients against properties.
package matcher

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-matching-engine/internal/models"
	"property-matching-engine/internal/utils"
)

// PropertyStore provides the properties an agent may match against.
type PropertyStore interface {
	GetByID(ctx context.Context, agentID, propertyID uuid.UUID) (*models.Property, error)
	GetByAgent(ctx context.Context, agentID uuid.UUID, includeUnavailable bool) ([]models.Property, error)
}

// ClientStore provides clients and their saved search criteria.
type ClientStore interface {
	GetByID(ctx context.Context, agentID, clientID uuid.UUID) (*models.Client, error)
	GetCriteria(ctx context.Context, clientID uuid.UUID) (*models.SearchCriteria, error)
	GetWithCriteriaByAgent(ctx context.Context, agentID uuid.UUID) ([]models.ClientWithCriteria, error)
}

// MatcherService resolves matching inputs for an agent and runs the engine.
type MatcherService struct {
	properties PropertyStore
	clients    ClientStore
	engine     *Engine
}

// NewMatcherService creates a new matcher service.
func NewMatcherService(properties PropertyStore, clients ClientStore, engine *Engine) *MatcherService {
	if engine == nil {
		engine = NewEngine(DefaultWorkers, DefaultParallelThreshold)
	}
	return &MatcherService{
		properties: properties,
		clients:    clients,
		engine:     engine,
	}
}

// MatchPropertiesForClient ranks the agent's properties against the saved
// criteria of one client.
func (m *MatcherService) MatchPropertiesForClient(ctx context.Context, agentID, clientID uuid.UUID, cfg models.MatchConfig) (*models.MatchResponse, error) {
	client, err := m.clients.GetByID(ctx, agentID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrClientNotFound, clientID)
	}

	criteria, err := m.clients.GetCriteria(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get search criteria: %w", err)
	}
	if criteria == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingCriteria, clientID)
	}

	return m.matchProperties(ctx, agentID, *criteria, cfg, "client")
}

// MatchPropertiesForCriteria ranks the agent's properties against ad-hoc
// criteria that are not stored anywhere.
func (m *MatcherService) MatchPropertiesForCriteria(ctx context.Context, agentID uuid.UUID, criteria models.SearchCriteria, cfg models.MatchConfig) (*models.MatchResponse, error) {
	return m.matchProperties(ctx, agentID, criteria, cfg, "criteria")
}

func (m *MatcherService) matchProperties(ctx context.Context, agentID uuid.UUID, criteria models.SearchCriteria, cfg models.MatchConfig, mode string) (*models.MatchResponse, error) {
	properties, err := m.properties.GetByAgent(ctx, agentID, cfg.IncludeUnavailable)
	if err != nil {
		return nil, fmt.Errorf("failed to get properties: %w", err)
	}

	resp, err := m.engine.ScoreCandidatesForCriteria(ctx, properties, criteria, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to score properties: %w", err)
	}

	logRun(mode, agentID, len(properties), resp)
	return resp, nil
}

// MatchClientsForProperty ranks the agent's clients by how well one property
// fits their saved criteria. Clients without criteria are not candidates.
func (m *MatcherService) MatchClientsForProperty(ctx context.Context, agentID, propertyID uuid.UUID, cfg models.MatchConfig) (*models.MatchResponse, error) {
	property, err := m.properties.GetByID(ctx, agentID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrPropertyNotFound, propertyID)
	}

	clients, err := m.clients.GetWithCriteriaByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get clients: %w", err)
	}

	resp, err := m.engine.ScoreClientsForProperty(ctx, clients, *property, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to score clients: %w", err)
	}

	logRun("property", agentID, len(clients), resp)
	return resp, nil
}

// Match dispatches a request to the matching mode it selects.
func (m *MatcherService) Match(ctx context.Context, agentID uuid.UUID, req models.MatchRequest, base models.MatchConfig) (*models.MatchResponse, error) {
	if err := ValidateMatchRequest(&req); err != nil {
		return nil, err
	}

	cfg := req.Options.Apply(base)
	switch {
	case req.ClientID != nil:
		return m.MatchPropertiesForClient(ctx, agentID, *req.ClientID, cfg)
	case req.PropertyID != nil:
		return m.MatchClientsForProperty(ctx, agentID, *req.PropertyID, cfg)
	default:
		return m.MatchPropertiesForCriteria(ctx, agentID, *req.Criteria, cfg)
	}
}

// ValidateMatchRequest checks that exactly one matching mode is selected.
func ValidateMatchRequest(req *models.MatchRequest) error {
	modes := 0
	if req.ClientID != nil {
		modes++
	}
	if req.PropertyID != nil {
		modes++
	}
	if req.Criteria != nil {
		modes++
	}

	switch {
	case modes > 1:
		return fmt.Errorf("%w: client_id, property_id and criteria are mutually exclusive", models.ErrInvalidRequest)
	case modes == 0:
		return fmt.Errorf("%w: criteria are required", models.ErrInvalidRequest)
	}
	return nil
}

func logRun(mode string, agentID uuid.UUID, candidates int, resp *models.MatchResponse) {
	utils.GetLogger().Info("Matching complete",
		zap.String("mode", mode),
		zap.String("agent_id", agentID.String()),
		zap.Int("candidates", candidates),
		zap.Int("total_matches", resp.TotalMatches),
		zap.Int("returned_matches", resp.ReturnedMatches),
		zap.Duration("processing_time", resp.ProcessingTime),
	)
}
