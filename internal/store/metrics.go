// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

// InsertMetric caches a reliability result. CalculatedAt is taken from the
// metric when set, otherwise from the store clock.
func (s *Store) InsertMetric(ctx context.Context, m types.ReliabilityMetric) (int64, error) {
	calculated := s.timestamp()
	if !m.CalculatedAt.IsZero() {
		calculated = formatTime(m.CalculatedAt)
	}

	id, err := s.insert(ctx,
		`INSERT INTO reliability_metrics (review_id, metric_type, stage, field_name, value, interpretation, calculated_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ReviewID, string(m.MetricType), nullString(string(m.Stage)), nullString(m.FieldName),
		m.Value, nullString(m.Interpretation), calculated,
	)
	if isForeignKeyViolation(err) {
		return 0, fmt.Errorf("review %d: %w", m.ReviewID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("inserting reliability metric: %w", err)
	}
	return id, nil
}

// Metrics returns the cached metrics for a review, newest first.
func (s *Store) Metrics(ctx context.Context, reviewID int64) ([]types.ReliabilityMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT metric_id, review_id, metric_type, stage, field_name, value, interpretation, calculated_date
		 FROM reliability_metrics
		 WHERE review_id = ?
		 ORDER BY calculated_date DESC, metric_id DESC`,
		reviewID)
	if err != nil {
		return nil, fmt.Errorf("querying reliability metrics: %w", err)
	}
	defer rows.Close()

	var metrics []types.ReliabilityMetric
	for rows.Next() {
		var (
			m              types.ReliabilityMetric
			metricType     string
			stage          sql.NullString
			field          sql.NullString
			interpretation sql.NullString
			calculated     string
		)
		if err := rows.Scan(&m.ID, &m.ReviewID, &metricType, &stage, &field,
			&m.Value, &interpretation, &calculated); err != nil {
			return nil, fmt.Errorf("scanning reliability metric: %w", err)
		}
		m.MetricType = types.MetricType(metricType)
		m.Stage = types.Stage(stage.String)
		m.FieldName = field.String
		m.Interpretation = interpretation.String
		m.CalculatedAt = parseTime(calculated)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
