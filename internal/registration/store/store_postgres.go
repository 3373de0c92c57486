package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	projectmodels "bto/internal/project/models"
	"bto/internal/registration/models"
	"bto/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const selectColumns = `id, officer_nric, officer_name, officer_age, officer_marital_status,
	project_id, status, created_at, updated_at`

// PostgresStore persists registrations through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts r. The partial unique index on open registrations turns a
// second PENDING/APPROVED row for the same officer and project into
// sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, r *models.Registration) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO officer_registrations (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Officer.NRIC, r.Officer.Name, r.Officer.Age, string(r.Officer.MaritalStatus),
		r.ProjectID, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("registration %s: %w", r.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM officer_registrations WHERE id = $1`, id)
	return scanRegistration(row)
}

func (s *PostgresStore) ListByOfficer(ctx context.Context, nric string) ([]*models.Registration, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM officer_registrations
		WHERE officer_nric = $1 ORDER BY created_at, id`, nric)
}

// OfficerRegistrations lists every registration held by candidate's identity.
func (s *PostgresStore) OfficerRegistrations(ctx context.Context, candidate projectmodels.User) ([]*models.Registration, error) {
	return s.ListByOfficer(ctx, normalizeNRIC(candidate.NRIC))
}

func (s *PostgresStore) ListByProject(ctx context.Context, projectID string) ([]*models.Registration, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM officer_registrations
		WHERE project_id = $1 ORDER BY created_at, id`, projectID)
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*models.Registration, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Execute locks the registration row, runs validate and mutate, and writes
// the status back in the same transaction. The validate error is returned
// unwrapped.
func (s *PostgresStore) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	r, err := scanRegistration(tx.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM officer_registrations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(r); err != nil {
			return nil, err
		}
	}
	mutate(r)

	if _, err := tx.Exec(ctx,
		`UPDATE officer_registrations SET status = $2, updated_at = $3 WHERE id = $1`,
		r.ID, string(r.Status), r.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit registration: %w", err)
	}
	return r, nil
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var (
		r             models.Registration
		maritalStatus string
		status        string
	)
	err := row.Scan(&r.ID, &r.Officer.NRIC, &r.Officer.Name, &r.Officer.Age, &maritalStatus,
		&r.ProjectID, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	r.Officer.MaritalStatus = projectmodels.MaritalStatus(maritalStatus)
	r.Officer.Role = projectmodels.RoleOfficer
	r.Status = projectmodels.RegistrationStatus(status)
	return &r, nil
}
