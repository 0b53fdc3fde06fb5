package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"property-matching-engine/internal/models"
)

const propertyColumns = `
	id, agent_id, external_ref, title, address, city, postal_code,
	price::text, living_area_sqm, rooms::text, property_type, availability_status,
	created_at, updated_at`

// PropertyRepository handles property database operations.
type PropertyRepository struct {
	db *DB
}

// NewPropertyRepository creates a new property repository.
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// GetByID retrieves one of the agent's properties.
func (r *PropertyRepository) GetByID(ctx context.Context, agentID, propertyID uuid.UUID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE id = $1 AND agent_id = $2`

	property, err := scanProperty(r.db.QueryRowContext(ctx, query, propertyID, agentID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return property, nil
}

// GetByAgent retrieves the agent's properties, oldest first. Unless
// includeUnavailable is set only AVAILABLE properties are returned.
func (r *PropertyRepository) GetByAgent(ctx context.Context, agentID uuid.UUID, includeUnavailable bool) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE agent_id = $1 AND ($2 OR availability_status = 'AVAILABLE')
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, agentID, includeUnavailable)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, *property)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}

	return properties, nil
}

// BulkUpsert inserts the listings of one import, updating listings the agent
// already has under the same external reference. Each row runs in its own
// savepoint so one bad row does not abort the rest.
func (r *PropertyRepository) BulkUpsert(ctx context.Context, properties []*models.PropertyCreate) (*models.BulkInsertResult, error) {
	result := &models.BulkInsertResult{
		Errors: []string{},
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for _, p := range properties {
			status := p.AvailabilityStatus
			if status == "" {
				status = models.AvailabilityAvailable
			}

			sp, err := tx.Begin(ctx)
			if err != nil {
				return fmt.Errorf("failed to open savepoint: %w", err)
			}

			_, err = sp.Exec(ctx, `
				INSERT INTO properties (
					id, agent_id, external_ref, title, address, city, postal_code,
					price, living_area_sqm, rooms, property_type, availability_status,
					created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10::numeric, $11, $12, $13, $13)
				ON CONFLICT (agent_id, external_ref) DO UPDATE SET
					title = EXCLUDED.title,
					address = EXCLUDED.address,
					city = EXCLUDED.city,
					postal_code = EXCLUDED.postal_code,
					price = EXCLUDED.price,
					living_area_sqm = EXCLUDED.living_area_sqm,
					rooms = EXCLUDED.rooms,
					property_type = EXCLUDED.property_type,
					availability_status = EXCLUDED.availability_status,
					updated_at = EXCLUDED.updated_at`,
				uuid.New(),
				p.AgentID,
				p.ExternalRef,
				p.Title,
				nullString(p.Address),
				nullString(p.City),
				nullString(p.PostalCode),
				decimalArg(p.Price),
				p.LivingAreaSqm,
				decimalArg(p.Rooms),
				nullString(string(p.PropertyType)),
				string(status),
				now,
			)

			if err != nil {
				_ = sp.Rollback(ctx)
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("property %s: %v", p.ExternalRef, err))
				continue
			}
			if err := sp.Commit(ctx); err != nil {
				return fmt.Errorf("failed to release savepoint: %w", err)
			}
			result.InsertedCount++
		}
		return nil
	})

	if err != nil {
		return result, fmt.Errorf("bulk upsert failed: %w", err)
	}

	return result, nil
}

// UpdateAvailability changes the sales status of a property.
func (r *PropertyRepository) UpdateAvailability(ctx context.Context, agentID, propertyID uuid.UUID, status models.AvailabilityStatus) error {
	if !status.IsValid() {
		return models.ErrInvalidAvailability
	}

	n, err := r.db.ExecContext(ctx,
		"UPDATE properties SET availability_status = $1, updated_at = $2 WHERE id = $3 AND agent_id = $4",
		string(status), time.Now().UTC(), propertyID, agentID)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	if n == 0 {
		return models.ErrPropertyNotFound
	}
	return nil
}

// scanProperty scans a single row into a Property.
func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	var address, city, postalCode, price, rooms, propertyType *string
	var status string

	err := row.Scan(
		&p.ID,
		&p.AgentID,
		&p.ExternalRef,
		&p.Title,
		&address,
		&city,
		&postalCode,
		&price,
		&p.LivingAreaSqm,
		&rooms,
		&propertyType,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Address = deref(address)
	p.City = deref(city)
	p.PostalCode = deref(postalCode)
	p.PropertyType = models.PropertyType(deref(propertyType))
	p.AvailabilityStatus = models.AvailabilityStatus(status)

	if p.Price, err = parseDecimal(price); err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	if p.Rooms, err = parseDecimal(rooms); err != nil {
		return nil, fmt.Errorf("invalid rooms: %w", err)
	}

	return &p, nil
}

// parseDecimal converts a numeric column read as text. NULL stays nil.
func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// decimalArg renders a decimal for a $n::numeric placeholder.
func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
