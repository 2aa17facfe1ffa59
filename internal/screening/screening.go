// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screening records reviewer decisions and tracks which papers each
// reviewer still has to screen at a stage.
package screening

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// Store is the subset of the review store the workflow needs.
type Store interface {
	GetReview(ctx context.Context, id int64) (*types.Review, error)
	ReviewPapers(ctx context.Context, reviewID int64) ([]string, error)
	InsertScreening(ctx context.Context, d types.ScreeningDecision) (int64, error)
	StageDecisions(ctx context.Context, reviewID int64, stage types.Stage) ([]types.ScreeningDecision, error)
}

// ValidationError reports caller input that breaks a screening rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Workflow enforces decision rules on top of the store.
type Workflow struct {
	store Store
}

// New returns a Workflow backed by s.
func New(s Store) *Workflow {
	return &Workflow{store: s}
}

// RecordDecision stores one reviewer's decision and returns its id. Exclude
// decisions must carry a rationale. Duplicates surface the store's
// ErrDuplicateDecision.
func (w *Workflow) RecordDecision(ctx context.Context, reviewID int64, paperID, reviewerID string, stage types.Stage, decision types.Decision, rationale string) (int64, error) {
	if strings.TrimSpace(paperID) == "" {
		return 0, &ValidationError{Field: "paper", Message: "paper id is required"}
	}
	if strings.TrimSpace(reviewerID) == "" {
		return 0, &ValidationError{Field: "reviewer", Message: "reviewer id is required"}
	}
	if !stage.Valid() {
		return 0, &ValidationError{Field: "stage", Message: fmt.Sprintf("unknown stage %q", stage)}
	}
	if !decision.Valid() {
		return 0, &ValidationError{Field: "decision", Message: fmt.Sprintf("unknown decision %q", decision)}
	}
	if decision == types.DecisionExclude && strings.TrimSpace(rationale) == "" {
		return 0, &ValidationError{
			Field:   "rationale",
			Message: "exclude decisions require a rationale referencing the inclusion criteria",
		}
	}

	return w.store.InsertScreening(ctx, types.ScreeningDecision{
		ReviewID:   reviewID,
		PaperID:    paperID,
		ReviewerID: reviewerID,
		Stage:      stage,
		Decision:   decision,
		Rationale:  rationale,
	})
}

// PapersAwaitingReview returns the linked papers, in linkage order, that the
// reviewer has not yet decided on at stage.
func (w *Workflow) PapersAwaitingReview(ctx context.Context, reviewID int64, reviewerID string, stage types.Stage) ([]string, error) {
	papers, err := w.store.ReviewPapers(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	decisions, err := w.store.StageDecisions(ctx, reviewID, stage)
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool)
	for _, d := range decisions {
		if d.ReviewerID == reviewerID {
			done[d.PaperID] = true
		}
	}

	awaiting := []string{}
	for _, p := range papers {
		if !done[p] {
			awaiting = append(awaiting, p)
		}
	}
	return awaiting, nil
}

// ReviewerProgress summarises one reviewer's screening at a stage.
type ReviewerProgress struct {
	ReviewerID string                 `json:"reviewer_id" yaml:"reviewer_id"`
	Screened   int                    `json:"screened" yaml:"screened"`
	Remaining  int                    `json:"remaining" yaml:"remaining"`
	ByDecision map[types.Decision]int `json:"by_decision" yaml:"by_decision"`
}

// Progress reports per-reviewer completion at a stage. Reviewers listed on
// the review come first in their listed order; anyone else who recorded
// decisions follows alphabetically. Decisions on papers that are no longer
// linked are ignored.
func (w *Workflow) Progress(ctx context.Context, reviewID int64, stage types.Stage) ([]ReviewerProgress, error) {
	review, err := w.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	papers, err := w.store.ReviewPapers(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	decisions, err := w.store.StageDecisions(ctx, reviewID, stage)
	if err != nil {
		return nil, err
	}

	linked := make(map[string]bool, len(papers))
	for _, p := range papers {
		linked[p] = true
	}

	byReviewer := make(map[string]*ReviewerProgress)
	var order []string
	add := func(id string) *ReviewerProgress {
		if p, ok := byReviewer[id]; ok {
			return p
		}
		p := &ReviewerProgress{ReviewerID: id, ByDecision: map[types.Decision]int{}}
		byReviewer[id] = p
		order = append(order, id)
		return p
	}
	for _, r := range review.Reviewers {
		add(r)
	}
	listed := len(order)

	var extra []string
	for _, d := range decisions {
		if !linked[d.PaperID] {
			continue
		}
		if _, ok := byReviewer[d.ReviewerID]; !ok {
			extra = append(extra, d.ReviewerID)
		}
		p := add(d.ReviewerID)
		p.Screened++
		p.ByDecision[d.Decision]++
	}
	sort.Strings(extra)

	result := make([]ReviewerProgress, 0, len(order))
	for _, id := range append(append([]string{}, order[:listed]...), extra...) {
		p := byReviewer[id]
		p.Remaining = len(papers) - p.Screened
		result = append(result, *p)
	}
	return result, nil
}
