package lead

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	"giyus/pkg/platform/sentinel"
)

// PostgresStore persists leads as a JSONB field map.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed lead store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, lead *models.Lead) error {
	if lead == nil {
		return fmt.Errorf("lead is required")
	}
	payload, err := marshalFields(lead.Fields)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO leads (fields, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	if err := s.db.QueryRowContext(ctx, query, payload, lead.CreatedAt, lead.UpdatedAt).Scan(&id); err != nil {
		return fmt.Errorf("insert lead: %w", mapError(err))
	}
	lead.ID = domain.LeadID(id)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.LeadID) (*models.Lead, error) {
	query := `
		SELECT id, fields, created_at, updated_at
		FROM leads
		WHERE id = $1
	`
	var (
		rowID   int64
		payload []byte
		lead    models.Lead
	)
	err := s.db.QueryRowContext(ctx, query, int64(id)).Scan(&rowID, &payload, &lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", mapError(err))
	}
	lead.ID = domain.LeadID(rowID)
	if lead.Fields, err = decodeFields(payload); err != nil {
		return nil, err
	}
	return &lead, nil
}

// UpdateFields merges values into the JSONB map with a single statement, so
// fields not named in values are never overwritten.
func (s *PostgresStore) UpdateFields(ctx context.Context, id domain.LeadID, values map[string]string, updatedAt time.Time) error {
	payload, err := marshalFields(values)
	if err != nil {
		return err
	}
	query := `
		UPDATE leads
		SET fields = fields || $2::jsonb, updated_at = $3
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, int64(id), payload, updatedAt)
	if err != nil {
		return fmt.Errorf("update lead fields: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead fields: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindByIDs loads several leads in one round trip. Missing ids are omitted.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []domain.LeadID) ([]*models.Lead, error) {
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	query := `
		SELECT id, fields, created_at, updated_at
		FROM leads
		WHERE id = ANY($1)
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find leads: %w", mapError(err))
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		var (
			rowID   int64
			payload []byte
			lead    models.Lead
		)
		if err := rows.Scan(&rowID, &payload, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		lead.ID = domain.LeadID(rowID)
		if lead.Fields, err = decodeFields(payload); err != nil {
			return nil, err
		}
		leads = append(leads, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// decodeFields reads the JSONB column. A JSON null decodes to an empty map.
func decodeFields(payload []byte) (map[string]string, error) {
	var values map[string]string
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, fmt.Errorf("decode lead fields: %w", err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

func marshalFields(values map[string]string) ([]byte, error) {
	if values == nil {
		values = map[string]string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode lead fields: %w", err)
	}
	return payload, nil
}

// mapError folds connection-class failures into sentinel.ErrUnavailable.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pqErr.Message)
	}
	return err
}
