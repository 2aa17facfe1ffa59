// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

// InsertExtraction saves one reviewer's extracted data for a paper and
// returns its id. Template validation happens before this call.
func (s *Store) InsertExtraction(ctx context.Context, rec types.ExtractionRecord) (int64, error) {
	data := rec.Data
	if data == nil {
		data = types.ExtractedData{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("encoding extracted data: %w", err)
	}

	id, err := s.insert(ctx,
		`INSERT INTO paper_extraction (review_id, paper_id, reviewer_id, template_name, extracted_data_json, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ReviewID, rec.PaperID, rec.ReviewerID, rec.TemplateName, string(dataJSON), s.timestamp(),
	)
	switch {
	case isUniqueViolation(err):
		return 0, fmt.Errorf("%s on %s: %w", rec.ReviewerID, rec.PaperID, ErrDuplicateExtraction)
	case isForeignKeyViolation(err):
		return 0, fmt.Errorf("review %d: %w", rec.ReviewID, ErrNotFound)
	case err != nil:
		return 0, fmt.Errorf("inserting extraction: %w", err)
	}
	return id, nil
}

// Extractions returns every extraction for a paper in a review, oldest first.
func (s *Store) Extractions(ctx context.Context, reviewID int64, paperID string) ([]types.ExtractionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT extraction_id, review_id, paper_id, reviewer_id, template_name, extracted_data_json, timestamp
		 FROM paper_extraction
		 WHERE review_id = ? AND paper_id = ?
		 ORDER BY timestamp, extraction_id`,
		reviewID, paperID)
	if err != nil {
		return nil, fmt.Errorf("querying extractions: %w", err)
	}
	defer rows.Close()

	var records []types.ExtractionRecord
	for rows.Next() {
		var (
			rec      types.ExtractionRecord
			dataJSON string
			ts       string
		)
		if err := rows.Scan(&rec.ID, &rec.ReviewID, &rec.PaperID, &rec.ReviewerID,
			&rec.TemplateName, &dataJSON, &ts); err != nil {
			return nil, fmt.Errorf("scanning extraction: %w", err)
		}
		data, err := types.ParseExtractedData([]byte(dataJSON))
		if err != nil {
			return nil, fmt.Errorf("extraction %d: %w", rec.ID, err)
		}
		rec.Data = data
		rec.Timestamp = parseTime(ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}
