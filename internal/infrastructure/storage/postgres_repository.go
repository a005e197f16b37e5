package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/rahulNinjatech/fever/internal/domain/model"
	"github.com/rahulNinjatech/fever/internal/domain/repository"
)

// PostgresRepository implements the EventStore interface using PostgreSQL as
// the backend database. The composite primary key on (base_event_id, event_id)
// is the uniqueness invariant the whole deduplication scheme rests on.
type PostgresRepository struct {
	db *sqlx.DB
}

type PostgresConfig struct {
	DSN          string
	Timeout      int // seconds, for the startup ping
	MaxOpenConns int
	MaxIdleConns int
}

func NewPostgresRepository(cfg PostgresConfig) (*PostgresRepository, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	// Check the connection
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Timeout)*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	// Ensure tables exist
	if err := createTablesIfNotExist(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Ensure PostgresRepository implements the EventStore interface
var _ repository.EventStore = (*PostgresRepository)(nil)

func createTablesIfNotExist(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			base_event_id BIGINT        NOT NULL,
			event_id      BIGINT        NOT NULL,
			title         TEXT          NOT NULL,
			start_time    TIMESTAMPTZ   NOT NULL,
			end_time      TIMESTAMPTZ   NOT NULL,
			min_price     NUMERIC(12,2) NOT NULL,
			max_price     NUMERIC(12,2) NOT NULL,
			PRIMARY KEY (base_event_id, event_id)
		)
	`)
	return err
}

const eventColumns = "base_event_id, event_id, title, start_time, end_time, min_price, max_price"

// FindExisting resolves which of the candidates' identity pairs are already
// stored, in a single tuple-membership query.
func (r *PostgresRepository) FindExisting(ctx context.Context, candidates []model.CandidateEvent) ([]model.Event, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	args := make([]interface{}, 0, 2*len(candidates))
	for _, c := range candidates {
		args = append(args, c.BaseEventID, c.EventID)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM events WHERE (base_event_id, event_id) IN (%s)",
		eventColumns, tupleInClause(len(candidates)),
	)

	var events []model.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query existing events: %w", err)
	}
	return events, nil
}

// InsertAll persists the candidates inside one transaction; a failure on any
// row rolls back every row.
func (r *PostgresRepository) InsertAll(ctx context.Context, candidates []model.CandidateEvent) error {
	if len(candidates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(
		"INSERT INTO events (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)", eventColumns,
	))
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candidates {
		if _, err := stmt.ExecContext(ctx,
			c.BaseEventID, c.EventID, c.Title, c.StartTime, c.EndTime, c.MinPrice, c.MaxPrice,
		); err != nil {
			return fmt.Errorf("failed to insert event %s: %w", c.CompositeKey(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert: %w", err)
	}
	return nil
}

// ListBetween returns events whose start_time lies in [startsAt, endsAt],
// bounds inclusive.
func (r *PostgresRepository) ListBetween(ctx context.Context, startsAt, endsAt time.Time) ([]model.Event, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM events WHERE start_time BETWEEN $1 AND $2 ORDER BY start_time, base_event_id, event_id",
		eventColumns,
	)

	var events []model.Event
	if err := r.db.SelectContext(ctx, &events, query, startsAt, endsAt); err != nil {
		return nil, fmt.Errorf("failed to query event range: %w", err)
	}
	return events, nil
}

// Close releases the underlying connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// tupleInClause builds the "($1,$2),($3,$4),..." placeholder list for a
// tuple-membership predicate over count identity pairs.
func tupleInClause(count int) string {
	pairs := make([]string, count)
	for i := 0; i < count; i++ {
		pairs[i] = fmt.Sprintf("($%d,$%d)", 2*i+1, 2*i+2)
	}
	return strings.Join(pairs, ",")
}
