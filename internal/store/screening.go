// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

const screeningColumns = `screening_id, review_id, paper_id, reviewer_id, stage, decision, rationale, timestamp`

// InsertScreening records a screening decision and returns its id. A second
// decision for the same review, paper, reviewer, and stage fails with
// ErrDuplicateDecision.
func (s *Store) InsertScreening(ctx context.Context, d types.ScreeningDecision) (int64, error) {
	id, err := s.insert(ctx,
		`INSERT INTO paper_screening (review_id, paper_id, reviewer_id, stage, decision, rationale, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ReviewID, d.PaperID, d.ReviewerID, string(d.Stage), string(d.Decision),
		nullString(d.Rationale), s.timestamp(),
	)
	switch {
	case isUniqueViolation(err):
		return 0, fmt.Errorf("%s on %s at %s: %w", d.ReviewerID, d.PaperID, d.Stage, ErrDuplicateDecision)
	case isForeignKeyViolation(err):
		return 0, fmt.Errorf("review %d: %w", d.ReviewID, ErrNotFound)
	case err != nil:
		return 0, fmt.Errorf("inserting screening decision: %w", err)
	}
	return id, nil
}

// ScreeningDecisions returns every decision on one paper at a stage, oldest first.
func (s *Store) ScreeningDecisions(ctx context.Context, reviewID int64, paperID string, stage types.Stage) ([]types.ScreeningDecision, error) {
	return s.queryScreening(ctx,
		`SELECT `+screeningColumns+` FROM paper_screening
		 WHERE review_id = ? AND paper_id = ? AND stage = ?
		 ORDER BY timestamp, screening_id`,
		reviewID, paperID, string(stage))
}

// StageDecisions returns every decision in a review at a stage, oldest first.
func (s *Store) StageDecisions(ctx context.Context, reviewID int64, stage types.Stage) ([]types.ScreeningDecision, error) {
	return s.queryScreening(ctx,
		`SELECT `+screeningColumns+` FROM paper_screening
		 WHERE review_id = ? AND stage = ?
		 ORDER BY timestamp, screening_id`,
		reviewID, string(stage))
}

func (s *Store) queryScreening(ctx context.Context, query string, args ...any) ([]types.ScreeningDecision, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying screening decisions: %w", err)
	}
	defer rows.Close()

	var decisions []types.ScreeningDecision
	for rows.Next() {
		var (
			d         types.ScreeningDecision
			stage     string
			decision  string
			rationale sql.NullString
			ts        string
		)
		if err := rows.Scan(&d.ID, &d.ReviewID, &d.PaperID, &d.ReviewerID,
			&stage, &decision, &rationale, &ts); err != nil {
			return nil, fmt.Errorf("scanning screening decision: %w", err)
		}
		d.Stage = types.Stage(stage)
		d.Decision = types.Decision(decision)
		d.Rationale = rationale.String
		d.Timestamp = parseTime(ts)
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
