package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"property-matching-engine/internal/models"
)

const criteriaColumns = `
	sc.min_budget::text, sc.max_budget::text, sc.min_area_sqm, sc.max_area_sqm,
	sc.min_rooms::text, sc.max_rooms::text, sc.preferred_locations, sc.property_types`

// ClientRepository handles client and search criteria database operations.
type ClientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// GetByID retrieves one of the agent's clients.
func (r *ClientRepository) GetByID(ctx context.Context, agentID, clientID uuid.UUID) (*models.Client, error) {
	query := `
		SELECT id, agent_id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''), created_at, updated_at
		FROM clients
		WHERE id = $1 AND agent_id = $2`

	var c models.Client
	err := r.db.QueryRowContext(ctx, query, clientID, agentID).Scan(
		&c.ID,
		&c.AgentID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return &c, nil
}

// GetCriteria retrieves the saved search criteria of a client. A client
// without a criteria row yields nil.
func (r *ClientRepository) GetCriteria(ctx context.Context, clientID uuid.UUID) (*models.SearchCriteria, error) {
	query := `SELECT ` + criteriaColumns + `
		FROM client_search_criteria sc
		WHERE sc.client_id = $1`

	criteria, err := scanCriteria(r.db.QueryRowContext(ctx, query, clientID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search criteria: %w", err)
	}

	return criteria, nil
}

// GetWithCriteriaByAgent retrieves every client of the agent that has saved
// search criteria.
func (r *ClientRepository) GetWithCriteriaByAgent(ctx context.Context, agentID uuid.UUID) ([]models.ClientWithCriteria, error) {
	query := `
		SELECT c.id, c.agent_id, c.first_name, c.last_name, COALESCE(c.email, ''), COALESCE(c.phone, ''),
			c.created_at, c.updated_at,` + criteriaColumns + `
		FROM clients c
		JOIN client_search_criteria sc ON sc.client_id = c.id
		WHERE c.agent_id = $1
		ORDER BY c.created_at, c.id`

	rows, err := r.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []models.ClientWithCriteria
	for rows.Next() {
		var cw models.ClientWithCriteria
		var raw criteriaRow

		err := rows.Scan(append([]interface{}{
			&cw.ID,
			&cw.AgentID,
			&cw.FirstName,
			&cw.LastName,
			&cw.Email,
			&cw.Phone,
			&cw.CreatedAt,
			&cw.UpdatedAt,
		}, raw.dest()...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}

		criteria, err := raw.toCriteria()
		if err != nil {
			return nil, fmt.Errorf("failed to read criteria of client %s: %w", cw.ID, err)
		}
		cw.Criteria = *criteria
		clients = append(clients, cw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return clients, nil
}

// SaveCriteria creates or replaces the search criteria of a client.
func (r *ClientRepository) SaveCriteria(ctx context.Context, clientID uuid.UUID, c *models.SearchCriteria) error {
	types := make([]string, 0, len(c.PropertyTypes))
	for _, t := range c.PropertyTypes {
		types = append(types, string(t))
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_search_criteria (
			client_id, min_budget, max_budget, min_area_sqm, max_area_sqm,
			min_rooms, max_rooms, preferred_locations, property_types, updated_at
		) VALUES ($1, $2::numeric, $3::numeric, $4, $5, $6::numeric, $7::numeric, $8, $9, NOW())
		ON CONFLICT (client_id) DO UPDATE SET
			min_budget = EXCLUDED.min_budget,
			max_budget = EXCLUDED.max_budget,
			min_area_sqm = EXCLUDED.min_area_sqm,
			max_area_sqm = EXCLUDED.max_area_sqm,
			min_rooms = EXCLUDED.min_rooms,
			max_rooms = EXCLUDED.max_rooms,
			preferred_locations = EXCLUDED.preferred_locations,
			property_types = EXCLUDED.property_types,
			updated_at = EXCLUDED.updated_at`,
		clientID,
		decimalArg(c.MinBudget),
		decimalArg(c.MaxBudget),
		c.MinAreaSqm,
		c.MaxAreaSqm,
		decimalArg(c.MinRooms),
		decimalArg(c.MaxRooms),
		nonNilStrings(c.PreferredLocations),
		types,
	)
	if err != nil {
		return fmt.Errorf("failed to save search criteria: %w", err)
	}
	return nil
}

// criteriaRow holds the raw column values of a client_search_criteria row.
type criteriaRow struct {
	minBudget, maxBudget *string
	minArea, maxArea     *int
	minRooms, maxRooms   *string
	locations, types     []string
}

func (cr *criteriaRow) dest() []interface{} {
	return []interface{}{
		&cr.minBudget, &cr.maxBudget, &cr.minArea, &cr.maxArea,
		&cr.minRooms, &cr.maxRooms, &cr.locations, &cr.types,
	}
}

func (cr *criteriaRow) toCriteria() (*models.SearchCriteria, error) {
	c := &models.SearchCriteria{
		MinAreaSqm:         cr.minArea,
		MaxAreaSqm:         cr.maxArea,
		PreferredLocations: cr.locations,
	}

	var err error
	if c.MinBudget, err = parseDecimal(cr.minBudget); err != nil {
		return nil, err
	}
	if c.MaxBudget, err = parseDecimal(cr.maxBudget); err != nil {
		return nil, err
	}
	if c.MinRooms, err = parseDecimal(cr.minRooms); err != nil {
		return nil, err
	}
	if c.MaxRooms, err = parseDecimal(cr.maxRooms); err != nil {
		return nil, err
	}

	for _, t := range cr.types {
		c.PropertyTypes = append(c.PropertyTypes, models.PropertyType(t))
	}

	return c, nil
}

func scanCriteria(row pgx.Row) (*models.SearchCriteria, error) {
	var raw criteriaRow
	if err := row.Scan(raw.dest()...); err != nil {
		return nil, err
	}
	return raw.toCriteria()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
