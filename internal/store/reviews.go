// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

const reviewColumns = `review_id, review_name, research_question, inclusion_criteria_json,
	reviewers_json, search_strategy, use_ai_suggestions, status, created_date`

// CreateReview inserts a new active review and returns its id.
func (s *Store) CreateReview(ctx context.Context, r types.NewReview) (int64, error) {
	criteria := r.InclusionCriteria
	if criteria == nil {
		criteria = map[string]any{}
	}
	reviewers := r.Reviewers
	if reviewers == nil {
		reviewers = []string{}
	}

	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return 0, fmt.Errorf("encoding inclusion criteria: %w", err)
	}
	reviewersJSON, err := json.Marshal(reviewers)
	if err != nil {
		return 0, fmt.Errorf("encoding reviewers: %w", err)
	}

	id, err := s.insert(ctx,
		`INSERT INTO reviews (review_name, research_question, inclusion_criteria_json,
			reviewers_json, search_strategy, use_ai_suggestions, status, created_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.ResearchQuestion, string(criteriaJSON), string(reviewersJSON),
		nullString(r.SearchStrategy), r.UseAISuggestions, string(types.StatusActive), s.timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting review: %w", err)
	}
	return id, nil
}

// GetReview returns the review with the given id, or ErrNotFound.
func (s *Store) GetReview(ctx context.Context, id int64) (*types.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE review_id = ?`, id)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up review: %w", err)
	}
	return r, nil
}

// ListReviews returns every review ordered by id.
func (s *Store) ListReviews(ctx context.Context) ([]types.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY review_id`)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	var reviews []types.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// SetReviewStatus moves a review to active, completed, or archived.
func (s *Store) SetReviewStatus(ctx context.Context, id int64, status types.ReviewStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid review status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET status = ? WHERE review_id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating review status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating review status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	return nil
}

// LinkPaper attaches a paper to a review. Linking twice is a no-op.
func (s *Store) LinkPaper(ctx context.Context, reviewID int64, paperID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO review_papers (review_id, paper_id, date_added) VALUES (?, ?, ?)`,
		reviewID, paperID, s.timestamp())
	if isForeignKeyViolation(err) {
		return fmt.Errorf("review %d: %w", reviewID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("linking paper %s: %w", paperID, err)
	}
	return nil
}

// ReviewPapers returns the paper ids linked to a review in linkage order.
func (s *Store) ReviewPapers(ctx context.Context, reviewID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id FROM review_papers WHERE review_id = ? ORDER BY date_added, rowid`,
		reviewID)
	if err != nil {
		return nil, fmt.Errorf("querying review papers: %w", err)
	}
	defer rows.Close()

	var papers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning paper id: %w", err)
		}
		papers = append(papers, id)
	}
	return papers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*types.Review, error) {
	var (
		r             types.Review
		criteriaJSON  string
		reviewersJSON string
		strategy      sql.NullString
		status        string
		created       string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.ResearchQuestion, &criteriaJSON,
		&reviewersJSON, &strategy, &r.UseAISuggestions, &status, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(criteriaJSON), &r.InclusionCriteria); err != nil {
		return nil, fmt.Errorf("decoding inclusion criteria: %w", err)
	}
	if err := json.Unmarshal([]byte(reviewersJSON), &r.Reviewers); err != nil {
		return nil, fmt.Errorf("decoding reviewers: %w", err)
	}
	r.SearchStrategy = strategy.String
	r.Status = types.ReviewStatus(status)
	r.CreatedAt = parseTime(created)
	return &r, nil
}
