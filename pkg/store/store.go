// Package store persists the run datasets in PostgreSQL.
//
// Four tables are maintained: parsing_results accumulates one summary row
// per run, current_jobs is replaced with the latest ranked snapshot,
// unique_jobs accumulates every vacancy URL ever seen, unique_closed_jobs
// accumulates vacancies that disappeared together with their lifetime.
package store

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/d9i2r2t1/hh-parser/pkg/config"
	"github.com/d9i2r2t1/hh-parser/pkg/etl"
)

const applicationName = "hh-parser"

// invalidCatalogName is the SQLSTATE Postgres answers when the database
// named in the connection string does not exist.
const invalidCatalogName = "3D000"

const insertChunkSize = 1000

type Store struct {
	pool   *pgxpool.Pool
	dbName string
}

// Connect opens a pool to the configured database, creating the database
// on first run the way the service always has: connect to the maintenance
// database, CREATE DATABASE, revoke public access, reconnect.
func Connect(ctx context.Context, cfg config.Postgres) (*Store, error) {
	zap.S().Debugf("Connecting to PostgreSQL database %q on the host %s under user %q...", cfg.Name, cfg.Host, cfg.User)

	pool, err := pgxpool.New(ctx, connString(cfg, cfg.Name))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		if !isInvalidCatalog(err) {
			return nil, errors.Wrapf(err, "failed to connect to database %q", cfg.Name)
		}
		if err := createDatabase(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err = pgxpool.New(ctx, connString(cfg, cfg.Name))
		if err != nil {
			return nil, errors.Wrap(err, "failed to build connection pool")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, errors.Wrapf(err, "failed to connect to created database %q", cfg.Name)
		}
	}

	store := &Store{pool: pool, dbName: cfg.Name}
	if err := store.ensureTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	zap.S().Debugf("Connected to PostgreSQL database %q", cfg.Name)
	return store, nil
}

func (s *Store) Close() {
	s.pool.Close()
	zap.S().Debugf("Disconnected from PostgreSQL database %q", s.dbName)
}

func connString(cfg config.Postgres, dbName string) string {
	hostPort := cfg.Host
	if cfg.Port != 0 {
		hostPort = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?application_name=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), hostPort, dbName, applicationName)
}

func isInvalidCatalog(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidCatalogName
}

func createDatabase(ctx context.Context, cfg config.Postgres) error {
	conn, err := pgx.Connect(ctx, connString(cfg, "postgres"))
	if err != nil {
		return errors.Wrap(err, "failed to connect to maintenance database")
	}
	defer func() {
		_ = conn.Close(ctx)
	}()

	dbName := pgx.Identifier{cfg.Name}.Sanitize()
	owner := pgx.Identifier{cfg.User}.Sanitize()
	if _, err := conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s OWNER %s", dbName, owner)); err != nil {
		return errors.Wrapf(err, "failed to create database %q", cfg.Name)
	}
	zap.S().Infof("Database %q created. Owner: %s", cfg.Name, cfg.User)

	if _, err := conn.Exec(ctx, fmt.Sprintf("REVOKE CONNECT ON DATABASE %s FROM PUBLIC", dbName)); err != nil {
		return errors.Wrapf(err, "failed to revoke public access to %q", cfg.Name)
	}
	zap.S().Debugf("Connection access to %q revoked from Public", cfg.Name)
	return nil
}

var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS parsing_results (
		date date NOT NULL,
		jobs_count integer NOT NULL,
		jobs_without_salary double precision NOT NULL,
		salary_mean bigint NOT NULL,
		salary_median bigint NOT NULL,
		min_salary_mean bigint NOT NULL,
		max_salary_mean bigint NOT NULL,
		time_parse double precision NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS current_jobs (
		"row" integer NOT NULL,
		date date NOT NULL,
		title text NOT NULL,
		company text NOT NULL,
		salary text NOT NULL,
		href text NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS unique_jobs (
		date date NOT NULL,
		href text NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS unique_closed_jobs (
		href text NOT NULL UNIQUE,
		publication_date date NOT NULL,
		closing_date date NOT NULL,
		date_diff integer NOT NULL
	)`,
}

func (s *Store) ensureTables(ctx context.Context) error {
	for _, ddl := range tableDDL {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return errors.Wrap(err, "failed to ensure tables")
		}
	}
	return nil
}

// StoredState loads everything the ETL diffs a new run against.
func (s *Store) StoredState(ctx context.Context) (etl.StoredState, error) {
	defer logDuration("fetching stored state", time.Now())

	state := etl.StoredState{ClosedJobURLs: map[string]struct{}{}}

	rows, err := s.pool.Query(ctx, `SELECT date, href FROM unique_jobs`)
	if err != nil {
		return state, errors.Wrap(err, "failed to query unique_jobs")
	}
	defer rows.Close()
	for rows.Next() {
		var job etl.UniqueJob
		if err := rows.Scan(&job.Date, &job.URL); err != nil {
			return state, errors.Wrap(err, "failed to scan unique_jobs row")
		}
		state.UniqueJobs = append(state.UniqueJobs, job)
	}
	if err := rows.Err(); err != nil {
		return state, errors.Wrap(err, "failed to read unique_jobs")
	}

	closedRows, err := s.pool.Query(ctx, `SELECT href FROM unique_closed_jobs`)
	if err != nil {
		return state, errors.Wrap(err, "failed to query unique_closed_jobs")
	}
	defer closedRows.Close()
	for closedRows.Next() {
		var href string
		if err := closedRows.Scan(&href); err != nil {
			return state, errors.Wrap(err, "failed to scan unique_closed_jobs row")
		}
		state.ClosedJobURLs[href] = struct{}{}
	}
	if err := closedRows.Err(); err != nil {
		return state, errors.Wrap(err, "failed to read unique_closed_jobs")
	}

	zap.S().Debugf("Stored state: %d unique jobs, %d closed jobs", len(state.UniqueJobs), len(state.ClosedJobURLs))
	return state, nil
}

// SaveDatasets writes all four datasets in one transaction, so a failed run
// never leaves the snapshot half-replaced.
func (s *Store) SaveDatasets(ctx context.Context, datasets etl.Datasets) error {
	defer logDuration("saving datasets", time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.saveSummary(ctx, tx, datasets.Summary); err != nil {
		return err
	}
	if err := s.replaceCurrentJobs(ctx, tx, datasets.RankedJobs); err != nil {
		return err
	}
	if err := s.appendUniqueJobs(ctx, tx, datasets.NewUniqueJobs); err != nil {
		return err
	}
	if err := s.appendClosedJobs(ctx, tx, datasets.NewClosedJobs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit datasets")
	}
	return nil
}

func (s *Store) saveSummary(ctx context.Context, tx pgx.Tx, summary etl.RunSummary) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO parsing_results (date, jobs_count, jobs_without_salary, salary_mean, salary_median,
			min_salary_mean, max_salary_mean, time_parse)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		summary.Date, summary.JobsCount, summary.JobsWithoutSalaryPct, summary.SalaryMean, summary.SalaryMedian,
		summary.MinSalaryMean, summary.MaxSalaryMean, summary.FetchDurationSec)
	if err != nil {
		return errors.Wrap(err, "failed to insert into parsing_results")
	}
	zap.S().Infof("1 row written to table \"parsing_results\"")
	return nil
}

func (s *Store) replaceCurrentJobs(ctx context.Context, tx pgx.Tx, jobs []etl.RankedJob) error {
	if _, err := tx.Exec(ctx, `TRUNCATE current_jobs`); err != nil {
		return errors.Wrap(err, "failed to truncate current_jobs")
	}
	for _, chunk := range chunk(jobs, insertChunkSize) {
		batch := &pgx.Batch{}
		for _, job := range chunk {
			batch.Queue(`INSERT INTO current_jobs ("row", date, title, company, salary, href)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				job.Row, job.Date, job.Title, job.Company, job.Salary, job.URL)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "failed to insert into current_jobs")
		}
	}
	zap.S().Infof("%d rows written to table \"current_jobs\"", len(jobs))
	return nil
}

func (s *Store) appendUniqueJobs(ctx context.Context, tx pgx.Tx, jobs []etl.UniqueJob) error {
	for _, chunk := range chunk(jobs, insertChunkSize) {
		batch := &pgx.Batch{}
		for _, job := range chunk {
			batch.Queue(`INSERT INTO unique_jobs (date, href) VALUES ($1, $2) ON CONFLICT (href) DO NOTHING`,
				job.Date, job.URL)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "failed to insert into unique_jobs")
		}
	}
	zap.S().Infof("%d rows written to table \"unique_jobs\"", len(jobs))
	return nil
}

func (s *Store) appendClosedJobs(ctx context.Context, tx pgx.Tx, jobs []etl.ClosedJob) error {
	for _, chunk := range chunk(jobs, insertChunkSize) {
		batch := &pgx.Batch{}
		for _, job := range chunk {
			batch.Queue(`INSERT INTO unique_closed_jobs (href, publication_date, closing_date, date_diff)
				VALUES ($1, $2, $3, $4) ON CONFLICT (href) DO NOTHING`,
				job.URL, job.PublicationDate, job.ClosingDate, job.DaysOpen)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "failed to insert into unique_closed_jobs")
		}
	}
	zap.S().Infof("%d rows written to table \"unique_closed_jobs\"", len(jobs))
	return nil
}

func logDuration(operation string, start time.Time) {
	zap.S().Debugf("%s completed in %.3f sec", operation, time.Since(start).Seconds())
}
