// Package trend reads collected trends from the ingestion store.
package trend

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/domain"
	"github.com/kapu/trend-script-go/pkg/errors"
)

const trendColumns = `id, title, subreddit, category, score, num_comments, nes, url, created_at, collected_at`

// ErrNotFound is returned by GetByID for an unknown trend.
var ErrNotFound = stderrors.New("trend not found")

type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.TrendData, error) {
	if id == "" {
		return nil, errors.NewValidationError("trend id is required", "id", id)
	}

	query := `SELECT ` + trendColumns + ` FROM trends WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	t, err := scanTrend(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, errors.NewServiceError("failed to load trend", "postgres", "get_trend", err)
	}
	return t, nil
}

// ListTop returns trends with NES of at least minNES, highest first.
func (r *Repository) ListTop(ctx context.Context, limit int, minNES float64) ([]*domain.TrendData, error) {
	if limit <= 0 {
		return nil, errors.NewValidationError("limit must be positive", "limit", limit)
	}

	query := `SELECT ` + trendColumns + `
		FROM trends
		WHERE nes >= $1
		ORDER BY nes DESC, collected_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, minNES, limit)
	if err != nil {
		return nil, errors.NewServiceError("failed to list trends", "postgres", "list_trends", err)
	}
	defer rows.Close()

	trends := make([]*domain.TrendData, 0, limit)
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			r.logger.Warn("Failed to scan trend row", zap.Error(err))
			continue
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewServiceError("failed to iterate trends", "postgres", "list_trends", err)
	}

	r.logger.Debug("Loaded top trends",
		zap.Int("count", len(trends)),
		zap.Float64("min_nes", minNES),
	)
	return trends, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrend(s scanner) (*domain.TrendData, error) {
	var (
		t           domain.TrendData
		subreddit   sql.NullString
		category    sql.NullString
		url         sql.NullString
		createdAt   sql.NullTime
		collectedAt sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.Title, &subreddit, &category, &t.Score, &t.NumComments, &t.NES, &url, &createdAt, &collectedAt); err != nil {
		return nil, err
	}
	t.Subreddit = subreddit.String
	t.Category = category.String
	t.URL = url.String
	t.CreatedAt = nullTime(createdAt)
	t.CollectedAt = nullTime(collectedAt)
	return &t, nil
}

func nullTime(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time.UTC()
}
