package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLiteStore keeps analyses in a single SQLite file. It serves local runs
// and tests; Postgres is the production store.
type SQLiteStore struct {
	db *sql.DB
	q  queries
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a second connection to ":memory:" would see an empty database
	db.SetMaxOpenConns(1)

	if err := applySQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, q: newQueries(sq.Question)}, nil
}

func applySQLiteSchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAnalysis(ctx context.Context, a *Analysis) error {
	prepareNew(a, time.Now().UTC())
	query, args, err := s.q.insertAnalysis(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	query, args, err := s.q.getAnalysis(id)
	if err != nil {
		return nil, err
	}
	a, err := scanAnalysis(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*Analysis, error) {
	query, args, err := s.q.listAnalyses(filter)
	if err != nil {
		return nil, err
	}
	return s.queryAnalyses(ctx, query, args)
}

func (s *SQLiteStore) GetPendingAnalyses(ctx context.Context, limit int) ([]*Analysis, error) {
	query, args, err := s.q.pendingAnalyses(limit)
	if err != nil {
		return nil, err
	}
	return s.queryAnalyses(ctx, query, args)
}

func (s *SQLiteStore) UpdateAnalysis(ctx context.Context, a *Analysis) error {
	a.UpdatedAt = time.Now().UTC()
	query, args, err := s.q.updateAnalysis(a)
	if err != nil {
		return err
	}
	return s.execOne(ctx, query, args)
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	query, args, err := s.q.deleteAnalysis(id)
	if err != nil {
		return err
	}
	return s.execOne(ctx, query, args)
}

func (s *SQLiteStore) ClaimAnalysis(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := s.q.claimAnalysis(id, time.Now().UTC())
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) CreateAnalysisEvent(ctx context.Context, event *AnalysisEvent) error {
	event.ID = uuid.New()
	event.CreatedAt = time.Now().UTC()
	query, args, err := s.q.insertEvent(event)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLiteStore) GetAnalysisEvents(ctx context.Context, analysisID uuid.UUID) ([]*AnalysisEvent, error) {
	query, args, err := s.q.analysisEvents(analysisID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*AnalysisEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*AnalysisStats, error) {
	query, args, err := s.q.stats()
	if err != nil {
		return nil, err
	}
	stats := &AnalysisStats{}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalPending, &stats.TotalInProgress, &stats.TotalCompleted, &stats.TotalFailed, &stats.AvgScore,
	)
	return stats, err
}

func (s *SQLiteStore) execOne(ctx context.Context, query string, args []interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) queryAnalyses(ctx context.Context, query string, args []interface{}) ([]*Analysis, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}
