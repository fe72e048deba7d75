package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/postgres.sql
var postgresSchema string

type PostgresStore struct {
	pool *pgxpool.Pool
	q    queries
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool, q: newQueries(sq.Dollar)}, nil
}

// EnsureSchema creates the analysis tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a *Analysis) error {
	prepareNew(a, time.Now().UTC())
	query, args, err := s.q.insertAnalysis(a)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, query, args...)
	return err
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	query, args, err := s.q.getAnalysis(id)
	if err != nil {
		return nil, err
	}
	a, err := scanAnalysis(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*Analysis, error) {
	query, args, err := s.q.listAnalyses(filter)
	if err != nil {
		return nil, err
	}
	return s.queryAnalyses(ctx, query, args)
}

func (s *PostgresStore) GetPendingAnalyses(ctx context.Context, limit int) ([]*Analysis, error) {
	query, args, err := s.q.pendingAnalyses(limit)
	if err != nil {
		return nil, err
	}
	return s.queryAnalyses(ctx, query, args)
}

func (s *PostgresStore) UpdateAnalysis(ctx context.Context, a *Analysis) error {
	a.UpdatedAt = time.Now().UTC()
	query, args, err := s.q.updateAnalysis(a)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	query, args, err := s.q.deleteAnalysis(id)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ClaimAnalysis(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := s.q.claimAnalysis(id, time.Now().UTC())
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) CreateAnalysisEvent(ctx context.Context, event *AnalysisEvent) error {
	event.ID = uuid.New()
	event.CreatedAt = time.Now().UTC()
	query, args, err := s.q.insertEvent(event)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, query, args...)
	return err
}

func (s *PostgresStore) GetAnalysisEvents(ctx context.Context, analysisID uuid.UUID) ([]*AnalysisEvent, error) {
	query, args, err := s.q.analysisEvents(analysisID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) GetStats(ctx context.Context) (*AnalysisStats, error) {
	query, args, err := s.q.stats()
	if err != nil {
		return nil, err
	}
	stats := &AnalysisStats{}
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalPending, &stats.TotalInProgress, &stats.TotalCompleted, &stats.TotalFailed, &stats.AvgScore,
	)
	return stats, err
}

func (s *PostgresStore) queryAnalyses(ctx context.Context, query string, args []interface{}) ([]*Analysis, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
