package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"property-matching-engine/internal/models"
)

// AgentRepository handles agent lookups.
type AgentRepository struct {
	db *DB
}

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(db *DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// GetByID retrieves an agent by ID.
func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	var a models.Agent
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM agents WHERE id = $1", id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return &a, nil
}
