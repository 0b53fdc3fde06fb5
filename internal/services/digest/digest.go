// Package digest notifies agents about clients matching one of their properties.
package digest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-matching-engine/internal/models"
	"property-matching-engine/internal/services/ses"
	"property-matching-engine/internal/utils"
)

// Matcher runs clients-for-property matching.
type Matcher interface {
	MatchClientsForProperty(ctx context.Context, agentID, propertyID uuid.UUID, cfg models.MatchConfig) (*models.MatchResponse, error)
}

// AgentStore looks up digest recipients.
type AgentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error)
}

// PropertyStore looks up the property a digest is about.
type PropertyStore interface {
	GetByID(ctx context.Context, agentID, propertyID uuid.UUID) (*models.Property, error)
}

// ClientStore looks up contact details of matching clients.
type ClientStore interface {
	GetByID(ctx context.Context, agentID, clientID uuid.UUID) (*models.Client, error)
}

// Mailer delivers a rendered digest.
type Mailer interface {
	SendMatchDigest(ctx context.Context, params ses.MatchDigestParams) (*ses.SendEmailResult, error)
}

// Result describes one digest run.
type Result struct {
	PropertyID   uuid.UUID              `json:"property_id"`
	Property     models.PropertySummary `json:"property"`
	TotalMatches int                    `json:"total_matches"`
	Listed       int                    `json:"listed"`
	Notified     bool                   `json:"notified"`
	MessageID    string                 `json:"message_id,omitempty"`
	Matches      *models.MatchResponse  `json:"matches"`
}

// Service builds and sends match digests.
type Service struct {
	matcher      Matcher
	agents       AgentStore
	properties   PropertyStore
	clients      ClientStore
	mailer       Mailer
	maxClients   int
	dashboardURL string
}

// NewService creates a digest service listing at most maxClients clients per email.
func NewService(matcher Matcher, agents AgentStore, properties PropertyStore, clients ClientStore, mailer Mailer, maxClients int, dashboardURL string) *Service {
	return &Service{
		matcher:      matcher,
		agents:       agents,
		properties:   properties,
		clients:      clients,
		mailer:       mailer,
		maxClients:   maxClients,
		dashboardURL: dashboardURL,
	}
}

// NotifyAgent matches the agent's clients against a property and emails the
// agent the best of them. No email is sent when nothing matches.
func (s *Service) NotifyAgent(ctx context.Context, agentID, propertyID uuid.UUID, cfg models.MatchConfig) (*Result, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrAgentNotFound, agentID)
	}

	property, err := s.properties.GetByID(ctx, agentID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrPropertyNotFound, propertyID)
	}

	resp, err := s.matcher.MatchClientsForProperty(ctx, agentID, propertyID, cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PropertyID:   propertyID,
		Property:     property.ToSummary(),
		TotalMatches: resp.TotalMatches,
		Matches:      resp,
	}

	if len(resp.Matches) == 0 {
		utils.GetLogger().Info("No matching clients, digest skipped",
			zap.String("agent_id", agentID.String()),
			zap.String("property_id", propertyID.String()),
		)
		return result, nil
	}

	contacts, err := s.contacts(ctx, agentID, resp)
	if err != nil {
		return nil, err
	}

	params := ses.BuildMatchDigestParams(agent, property, resp, contacts, s.maxClients, s.dashboardURL)
	sent, err := s.mailer.SendMatchDigest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to send digest: %w", err)
	}

	result.Listed = len(params.TopClients)
	result.Notified = true
	result.MessageID = sent.MessageID

	utils.GetLogger().Info("Match digest sent",
		zap.String("agent_id", agentID.String()),
		zap.String("property_id", propertyID.String()),
		zap.Int("total_matches", resp.TotalMatches),
		zap.Int("listed", result.Listed),
	)

	return result, nil
}

func (s *Service) contacts(ctx context.Context, agentID uuid.UUID, resp *models.MatchResponse) (map[uuid.UUID]*models.Client, error) {
	matches := resp.Matches
	if s.maxClients > 0 && len(matches) > s.maxClients {
		matches = matches[:s.maxClients]
	}

	contacts := make(map[uuid.UUID]*models.Client, len(matches))
	for _, m := range matches {
		c, err := s.clients.GetByID(ctx, agentID, m.CandidateID)
		if err != nil {
			return nil, fmt.Errorf("failed to get client %s: %w", m.CandidateID, err)
		}
		if c != nil {
			contacts[c.ID] = c
		}
	}
	return contacts, nil
}
