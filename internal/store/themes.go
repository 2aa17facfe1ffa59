// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

const themeColumns = `theme_id, review_id, theme_name, theme_description, parent_theme_id, created_by, timestamp`

// InsertTheme persists a confirmed theme and returns its id. A parent, when
// given, must exist in the same review.
func (s *Store) InsertTheme(ctx context.Context, t types.Theme) (int64, error) {
	var parent sql.NullInt64
	if t.ParentID != nil {
		p, err := s.GetTheme(ctx, *t.ParentID)
		if err != nil {
			return 0, fmt.Errorf("parent theme: %w", err)
		}
		if p.ReviewID != t.ReviewID {
			return 0, fmt.Errorf("theme %d: %w", p.ID, ErrInvalidParent)
		}
		parent = sql.NullInt64{Int64: *t.ParentID, Valid: true}
	}

	id, err := s.insert(ctx,
		`INSERT INTO themes (review_id, theme_name, theme_description, parent_theme_id, created_by, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ReviewID, t.Name, nullString(t.Description), parent, t.CreatedBy, s.timestamp(),
	)
	if isForeignKeyViolation(err) {
		return 0, fmt.Errorf("review %d: %w", t.ReviewID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("inserting theme: %w", err)
	}
	return id, nil
}

// GetTheme returns one theme, or ErrNotFound.
func (s *Store) GetTheme(ctx context.Context, id int64) (*types.Theme, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+themeColumns+` FROM themes WHERE theme_id = ?`, id)
	t, err := scanTheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("theme %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up theme: %w", err)
	}
	return t, nil
}

// Themes returns every theme in a review in creation order.
func (s *Store) Themes(ctx context.Context, reviewID int64) ([]types.Theme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE review_id = ? ORDER BY timestamp, theme_id`,
		reviewID)
	if err != nil {
		return nil, fmt.Errorf("querying themes: %w", err)
	}
	defer rows.Close()

	var themes []types.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning theme: %w", err)
		}
		themes = append(themes, *t)
	}
	return themes, rows.Err()
}

func scanTheme(row rowScanner) (*types.Theme, error) {
	var (
		t      types.Theme
		desc   sql.NullString
		parent sql.NullInt64
		ts     string
	)
	if err := row.Scan(&t.ID, &t.ReviewID, &t.Name, &desc, &parent, &t.CreatedBy, &ts); err != nil {
		return nil, err
	}
	t.Description = desc.String
	if parent.Valid {
		id := parent.Int64
		t.ParentID = &id
	}
	t.CreatedAt = parseTime(ts)
	return &t, nil
}
