package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/staffscout/internal/domain"
)

var ErrRunNotFound = errors.New("scrape run not found")

const schema = `
CREATE TABLE IF NOT EXISTS scrape_runs (
	id              UUID PRIMARY KEY,
	company         TEXT NOT NULL,
	domain          TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	organization_id TEXT NOT NULL DEFAULT '',
	population      INTEGER NOT NULL DEFAULT 0,
	depth           INTEGER NOT NULL DEFAULT 0,
	dimensions      INTEGER NOT NULL DEFAULT 0,
	employee_count  INTEGER NOT NULL DEFAULT 0,
	fail_reason     TEXT NOT NULL DEFAULT '',
	request         JSONB NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS employees (
	run_id     UUID NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	full_name  TEXT NOT NULL,
	occupation TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS scrape_runs_company_idx ON scrape_runs (company, started_at DESC);
`

// PostgresStore keeps the history of scrape runs and the records each produced.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// Migrate creates the tables when they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// CreateRun records a run as it starts.
func (s *PostgresStore) CreateRun(ctx context.Context, run *domain.ScrapeRun, req domain.ScrapeRequest) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO scrape_runs (id, company, domain, status, request, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Company, run.Domain, run.Status, reqJSON, run.StartedAt,
	)
	return err
}

// FinishRun stores the outcome of a run and its records within a single transaction.
func (s *PostgresStore) FinishRun(ctx context.Context, run *domain.ScrapeRun, records []domain.EmployeeRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE scrape_runs SET
		   status = $2, organization_id = $3, population = $4, depth = $5, dimensions = $6,
		   employee_count = $7, fail_reason = $8, finished_at = $9, updated_at = NOW()
		 WHERE id = $1`,
		run.ID, run.Status, run.OrganizationID, run.Population, run.Depth, run.Dimensions,
		run.EmployeeCount, run.FailReason, run.FinishedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}

	// Batch insert records
	if len(records) > 0 {
		batch := &pgx.Batch{}
		for i, r := range records {
			batch.Queue(`INSERT INTO employees (run_id, position, full_name, occupation) VALUES ($1, $2, $3, $4)`,
				run.ID, i, r.FullName, r.Occupation)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetRun retrieves the current status of a run.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*domain.ScrapeRun, error) {
	var run domain.ScrapeRun
	var finishedAt *time.Time
	err := s.db.QueryRow(ctx,
		`SELECT id::text, company, domain, status, organization_id, population, depth, dimensions,
		        employee_count, fail_reason, started_at, finished_at
		 FROM scrape_runs WHERE id = $1`,
		id,
	).Scan(&run.ID, &run.Company, &run.Domain, &run.Status, &run.OrganizationID, &run.Population,
		&run.Depth, &run.Dimensions, &run.EmployeeCount, &run.FailReason, &run.StartedAt, &finishedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.FinishedAt = finishedAt
	return &run, nil
}

// ListEmployees returns a run's records in the order they were found.
func (s *PostgresStore) ListEmployees(ctx context.Context, id string) ([]domain.EmployeeRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT full_name, occupation FROM employees WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.EmployeeRecord, error) {
		var r domain.EmployeeRecord
		err := row.Scan(&r.FullName, &r.Occupation)
		return r, err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
