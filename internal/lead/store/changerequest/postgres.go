package changerequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	"giyus/pkg/platform/sentinel"
)

const (
	pgForeignKeyViolation = "23503"

	changeRequestColumns = `id, lead_id, field_name, old_value, new_value, proposed_by, proposed_at`
)

// PostgresStore keeps pending change requests in the change_requests table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts the request and assigns its id. A missing lead surfaces as
// sentinel.ErrNotFound through the foreign key.
func (s *PostgresStore) Create(ctx context.Context, cr *models.ChangeRequest) error {
	if cr == nil {
		return fmt.Errorf("change request is required")
	}
	query := `
		INSERT INTO change_requests (lead_id, field_name, old_value, new_value, proposed_by, proposed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		int64(cr.LeadID), cr.FieldName, cr.OldValue, cr.NewValue, cr.ProposedBy, cr.ProposedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("lead %d: %w", cr.LeadID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert change request: %w", err)
	}
	cr.ID = domain.ChangeRequestID(id)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ChangeRequestID) (*models.ChangeRequest, error) {
	query := `SELECT ` + changeRequestColumns + ` FROM change_requests WHERE id = $1`
	cr, err := scanChangeRequest(s.pool.QueryRow(ctx, query, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("change request not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find change request: %w", err)
	}
	return cr, nil
}

func (s *PostgresStore) HasPending(ctx context.Context, leadID domain.LeadID, field string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM change_requests WHERE lead_id = $1 AND field_name = $2)`
	var exists bool
	if err := s.pool.QueryRow(ctx, query, int64(leadID), field).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending change request: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) PendingFields(ctx context.Context, leadID domain.LeadID) (map[string]bool, error) {
	query := `SELECT DISTINCT field_name FROM change_requests WHERE lead_id = $1`
	rows, err := s.pool.Query(ctx, query, int64(leadID))
	if err != nil {
		return nil, fmt.Errorf("list pending fields: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan pending fields: %w", err)
	}
	fields := make(map[string]bool, len(names))
	for _, name := range names {
		fields[name] = true
	}
	return fields, nil
}

func (s *PostgresStore) ListPending(ctx context.Context, leadID domain.LeadID) ([]*models.ChangeRequest, error) {
	query := `
		SELECT ` + changeRequestColumns + `
		FROM change_requests
		WHERE lead_id = $1
		ORDER BY proposed_at DESC, id DESC
	`
	rows, err := s.pool.Query(ctx, query, int64(leadID))
	if err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	defer rows.Close()

	pending := []*models.ChangeRequest{}
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan change request: %w", err)
		}
		pending = append(pending, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change requests: %w", err)
	}
	return pending, nil
}

// Resolve deletes the pending row. Resolved requests are not retained here.
func (s *PostgresStore) Resolve(ctx context.Context, id domain.ChangeRequestID, outcome models.Outcome) error {
	if !outcome.IsValid() {
		return fmt.Errorf("invalid outcome %q", outcome)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM change_requests WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("resolve change request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("change request not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func scanChangeRequest(row pgx.Row) (*models.ChangeRequest, error) {
	var (
		cr     models.ChangeRequest
		id     int64
		leadID int64
	)
	if err := row.Scan(&id, &leadID, &cr.FieldName, &cr.OldValue, &cr.NewValue, &cr.ProposedBy, &cr.ProposedAt); err != nil {
		return nil, err
	}
	cr.ID = domain.ChangeRequestID(id)
	cr.LeadID = domain.LeadID(leadID)
	return &cr, nil
}
