package project

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bto/internal/project/models"
	"bto/pkg/platform/sentinel"
	txcontext "bto/pkg/platform/tx"
)

// PostgresStore persists projects across three tables: projects, project_units
// and project_officers. Execute locks the project row with SELECT ... FOR UPDATE
// for the whole validate-mutate-save cycle.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

type PostgresOption func(*PostgresStore)

// WithClock overrides the timestamp source for updated_at.
func WithClock(now func() time.Time) PostgresOption {
	return func(s *PostgresStore) {
		s.now = now
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// withTx joins the caller's transaction or opens one for fn.
func (s *PostgresStore) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, fn)
}

const projectColumns = `id, name, neighborhood, application_open_date, application_close_date,
	manager_nric, manager_name, manager_age, manager_marital_status,
	visible, max_officer_slots, available_officer_slots`

// Create inserts p with its units and roster. Returns sentinel.ErrAlreadyUsed
// when the ID is taken.
func (s *PostgresStore) Create(ctx context.Context, p *models.Project) error {
	snap := p.Snapshot()
	return s.withTx(ctx, func(ctx context.Context) error {
		now := s.now()
		res, err := s.querier(ctx).ExecContext(ctx, `
			INSERT INTO projects (`+projectColumns+`, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
			ON CONFLICT (id) DO NOTHING`,
			snap.ID, snap.Name, snap.Neighborhood, snap.ApplicationOpenDate, snap.ApplicationCloseDate,
			snap.Manager.NRIC, snap.Manager.Name, snap.Manager.Age, string(snap.Manager.MaritalStatus),
			snap.Visible, snap.MaxOfficerSlots, snap.AvailableOfficerSlots, now,
		)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert project rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("project %s: %w", snap.ID, sentinel.ErrAlreadyUsed)
		}
		return s.saveChildren(ctx, snap)
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var p *models.Project
	err := s.withTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.load(ctx, id, false)
		return err
	})
	return p, err
}

// List returns every project ordered by ID.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Project, error) {
	q := s.querier(ctx)
	rows, err := q.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var snaps []*models.ProjectSnapshot
	byID := make(map[string]*models.ProjectSnapshot)
	for rows.Next() {
		snap, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
		byID[snap.ID] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	if len(snaps) == 0 {
		return []*models.Project{}, nil
	}

	ids := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		ids = append(ids, snap.ID)
	}
	if err := s.loadUnits(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := s.loadOfficers(ctx, ids, byID); err != nil {
		return nil, err
	}

	out := make([]*models.Project, 0, len(snaps))
	for _, snap := range snaps {
		p, err := models.RestoreProject(*snap)
		if err != nil {
			return nil, fmt.Errorf("restore project %s: %w", snap.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Execute locks the project row, runs validate and mutate, and writes the result
// back in the same transaction. The validate error is returned unwrapped. A nil
// mutate reads the project under the lock without writing it.
//
// Outside a caller's transaction Execute also holds a session advisory lock on
// the project ID from before BEGIN until the committed callbacks return, so
// callbacks across every instance observe mutations of one project in commit
// order. Inside a caller's transaction the callbacks run before that caller
// commits.
func (s *PostgresStore) Execute(ctx context.Context, id string, validate func(*models.Project) error, mutate func(*models.Project), committed ...func(*models.Project)) (*models.Project, error) {
	if _, ok := txcontext.From(ctx); ok {
		p, err := s.execute(ctx, s.db, id, validate, mutate)
		if err != nil {
			return nil, err
		}
		runCommitted(p, committed)
		return p, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, id); err != nil {
		return nil, fmt.Errorf("lock project %s: %w", id, err)
	}
	defer s.advisoryUnlock(ctx, conn, id)

	p, err := s.execute(ctx, conn, id, validate, mutate)
	if err != nil {
		return nil, err
	}
	runCommitted(p, committed)
	return p, nil
}

func (s *PostgresStore) execute(ctx context.Context, db txcontext.Beginner, id string, validate func(*models.Project) error, mutate func(*models.Project)) (*models.Project, error) {
	var result *models.Project
	err := txcontext.Run(ctx, db, func(ctx context.Context) error {
		p, err := s.load(ctx, id, true)
		if err != nil {
			return err
		}
		if validate != nil {
			if err := validate(p); err != nil {
				return err
			}
		}
		if mutate != nil {
			mutate(p)
			if err := s.save(ctx, p.Snapshot()); err != nil {
				return err
			}
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// advisoryUnlock releases the project's session lock. A connection whose lock
// could not be released is discarded rather than returned to the pool.
func (s *PostgresStore) advisoryUnlock(ctx context.Context, conn *sql.Conn, id string) {
	_, err := conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock(hashtext($1))`, id)
	if err != nil {
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
}

func runCommitted(p *models.Project, committed []func(*models.Project)) {
	for _, fn := range committed {
		fn(p.Clone())
	}
}

func (s *PostgresStore) load(ctx context.Context, id string, forUpdate bool) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	snap, err := scanProject(s.querier(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	byID := map[string]*models.ProjectSnapshot{id: snap}
	if err := s.loadUnits(ctx, []string{id}, byID); err != nil {
		return nil, err
	}
	if err := s.loadOfficers(ctx, []string{id}, byID); err != nil {
		return nil, err
	}
	p, err := models.RestoreProject(*snap)
	if err != nil {
		return nil, fmt.Errorf("restore project %s: %w", id, err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.ProjectSnapshot, error) {
	var (
		snap          models.ProjectSnapshot
		maritalStatus string
	)
	err := row.Scan(
		&snap.ID, &snap.Name, &snap.Neighborhood, &snap.ApplicationOpenDate, &snap.ApplicationCloseDate,
		&snap.Manager.NRIC, &snap.Manager.Name, &snap.Manager.Age, &maritalStatus,
		&snap.Visible, &snap.MaxOfficerSlots, &snap.AvailableOfficerSlots,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	snap.Manager.MaritalStatus = models.MaritalStatus(maritalStatus)
	snap.Manager.Role = models.RoleManager
	snap.TotalUnits = make(map[models.FlatType]int)
	snap.AvailableUnits = make(map[models.FlatType]int)
	return &snap, nil
}

func (s *PostgresStore) loadUnits(ctx context.Context, ids []string, byID map[string]*models.ProjectSnapshot) error {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT project_id, flat_type, total, available
		FROM project_units
		WHERE project_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load project units: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			projectID, flatType string
			total, available    int
		)
		if err := rows.Scan(&projectID, &flatType, &total, &available); err != nil {
			return fmt.Errorf("scan project unit: %w", err)
		}
		if snap, ok := byID[projectID]; ok {
			snap.TotalUnits[models.FlatType(flatType)] = total
			snap.AvailableUnits[models.FlatType(flatType)] = available
		}
	}
	return rows.Err()
}

func (s *PostgresStore) loadOfficers(ctx context.Context, ids []string, byID map[string]*models.ProjectSnapshot) error {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT project_id, nric, name, age, marital_status
		FROM project_officers
		WHERE project_id = ANY($1)
		ORDER BY project_id, position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load project officers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			projectID     string
			officer       models.User
			maritalStatus string
		)
		if err := rows.Scan(&projectID, &officer.NRIC, &officer.Name, &officer.Age, &maritalStatus); err != nil {
			return fmt.Errorf("scan project officer: %w", err)
		}
		officer.MaritalStatus = models.MaritalStatus(maritalStatus)
		officer.Role = models.RoleOfficer
		if snap, ok := byID[projectID]; ok {
			snap.Officers = append(snap.Officers, officer)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) save(ctx context.Context, snap models.ProjectSnapshot) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		UPDATE projects SET
			name = $2, neighborhood = $3, application_open_date = $4, application_close_date = $5,
			visible = $6, max_officer_slots = $7, available_officer_slots = $8, updated_at = $9
		WHERE id = $1`,
		snap.ID, snap.Name, snap.Neighborhood, snap.ApplicationOpenDate, snap.ApplicationCloseDate,
		snap.Visible, snap.MaxOfficerSlots, snap.AvailableOfficerSlots, s.now(),
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	q := s.querier(ctx)
	if _, err := q.ExecContext(ctx, `DELETE FROM project_units WHERE project_id = $1`, snap.ID); err != nil {
		return fmt.Errorf("clear project units: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM project_officers WHERE project_id = $1`, snap.ID); err != nil {
		return fmt.Errorf("clear project officers: %w", err)
	}
	return s.saveChildren(ctx, snap)
}

func (s *PostgresStore) saveChildren(ctx context.Context, snap models.ProjectSnapshot) error {
	q := s.querier(ctx)

	if len(snap.TotalUnits) > 0 {
		var (
			types          []string
			totals, avails []int64
		)
		for t, total := range snap.TotalUnits {
			types = append(types, string(t))
			totals = append(totals, int64(total))
			avails = append(avails, int64(snap.AvailableUnits[t]))
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO project_units (project_id, flat_type, total, available)
			SELECT $1, u.flat_type, u.total, u.available
			FROM unnest($2::text[], $3::int[], $4::int[]) AS u(flat_type, total, available)`,
			snap.ID, pq.Array(types), pq.Array(totals), pq.Array(avails))
		if err != nil {
			return fmt.Errorf("insert project units: %w", err)
		}
	}

	if len(snap.Officers) > 0 {
		var (
			positions, ages []int64
			nrics, names    []string
			statuses        []string
		)
		for i, o := range snap.Officers {
			positions = append(positions, int64(i))
			nrics = append(nrics, o.NRIC)
			names = append(names, o.Name)
			ages = append(ages, int64(o.Age))
			statuses = append(statuses, string(o.MaritalStatus))
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO project_officers (project_id, position, nric, name, age, marital_status)
			SELECT $1, o.position, o.nric, o.name, o.age, o.marital_status
			FROM unnest($2::int[], $3::text[], $4::text[], $5::int[], $6::text[])
				AS o(position, nric, name, age, marital_status)`,
			snap.ID, pq.Array(positions), pq.Array(nrics), pq.Array(names), pq.Array(ages), pq.Array(statuses))
		if err != nil {
			return fmt.Errorf("insert project officers: %w", err)
		}
	}
	return nil
}
