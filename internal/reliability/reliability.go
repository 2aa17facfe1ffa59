// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reliability computes inter-rater agreement over dual-screened
// papers and dual-extracted fields.
//
// Computation never writes to the store. Caching a result as a
// reliability_metrics row is a separate call to SaveMetric; nothing
// invalidates cached rows, so callers treat them as snapshots.
package reliability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// ErrNoData is returned by SaveMetric for results with nothing to compare.
var ErrNoData = errors.New("no comparable pairs")

// missingLabel stands in for a field absent from one extraction.
const missingLabel = "<missing>"

// Store is the subset of the review store the engine reads.
type Store interface {
	ReviewPapers(ctx context.Context, reviewID int64) ([]string, error)
	ScreeningDecisions(ctx context.Context, reviewID int64, paperID string, stage types.Stage) ([]types.ScreeningDecision, error)
	Extractions(ctx context.Context, reviewID int64, paperID string) ([]types.ExtractionRecord, error)
}

// MetricStore persists cached metrics.
type MetricStore interface {
	InsertMetric(ctx context.Context, m types.ReliabilityMetric) (int64, error)
}

// Pair is one dual-rated paper.
type Pair struct {
	PaperID   string `json:"paper_id" yaml:"paper_id"`
	Reviewer1 string `json:"reviewer1" yaml:"reviewer1"`
	Reviewer2 string `json:"reviewer2" yaml:"reviewer2"`
	Label1    string `json:"decision1" yaml:"decision1"`
	Label2    string `json:"decision2" yaml:"decision2"`
	Agree     bool   `json:"agree" yaml:"agree"`
}

// AgreementResult is the outcome of an agreement computation. When NoData is
// set the numeric fields are zero and Note explains why.
type AgreementResult struct {
	ReviewID   int64            `json:"review_id" yaml:"review_id"`
	MetricType types.MetricType `json:"metric_type" yaml:"metric_type"`
	Stage      types.Stage      `json:"stage,omitempty" yaml:"stage,omitempty"`
	FieldName  string           `json:"field_name,omitempty" yaml:"field_name,omitempty"`

	NoData bool   `json:"no_data,omitempty" yaml:"no_data,omitempty"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`

	Kappa            float64 `json:"kappa" yaml:"kappa"`
	Interpretation   string  `json:"interpretation" yaml:"interpretation"`
	TotalPapers      int     `json:"total_papers" yaml:"total_papers"`
	Agreements       int     `json:"agreements" yaml:"agreements"`
	PercentAgreement float64 `json:"percent_agreement" yaml:"percent_agreement"`
	Disagreements    []Pair  `json:"disagreements" yaml:"disagreements"`
}

// Metric converts the result into a cacheable metric row. The stored value
// is kappa; its interpretation is the Landis & Koch band.
func (r AgreementResult) Metric() types.ReliabilityMetric {
	return types.ReliabilityMetric{
		ReviewID:       r.ReviewID,
		MetricType:     r.MetricType,
		Stage:          r.Stage,
		FieldName:      r.FieldName,
		Value:          r.Kappa,
		Interpretation: r.Interpretation,
	}
}

// Engine computes agreement statistics from stored decisions.
type Engine struct {
	store Store
}

// New returns an Engine reading from s.
func New(s Store) *Engine {
	return &Engine{store: s}
}

// ComputeScreeningAgreement compares decisions on papers screened by exactly
// two reviewers at stage. Papers with zero, one, or three or more decisions
// are left out.
func (e *Engine) ComputeScreeningAgreement(ctx context.Context, reviewID int64, stage types.Stage) (AgreementResult, error) {
	papers, err := e.store.ReviewPapers(ctx, reviewID)
	if err != nil {
		return AgreementResult{}, err
	}

	var pairs []Pair
	for _, paperID := range papers {
		decisions, err := e.store.ScreeningDecisions(ctx, reviewID, paperID, stage)
		if err != nil {
			return AgreementResult{}, err
		}
		if len(decisions) != 2 {
			continue
		}
		pairs = append(pairs, newPair(paperID,
			decisions[0].ReviewerID, decisions[1].ReviewerID,
			string(decisions[0].Decision), string(decisions[1].Decision)))
	}

	result := AgreementResult{
		ReviewID:   reviewID,
		MetricType: types.MetricScreeningKappa,
		Stage:      stage,
	}
	return summarize(result, pairs, "no dual-screened papers")
}

// ComputeExtractionAgreement compares one field across papers extracted by
// exactly two reviewers. Values are compared by their canonical JSON form; a
// field missing from one record counts as its own label.
func (e *Engine) ComputeExtractionAgreement(ctx context.Context, reviewID int64, fieldName string) (AgreementResult, error) {
	if strings.TrimSpace(fieldName) == "" {
		return AgreementResult{}, errors.New("field name is required")
	}

	papers, err := e.store.ReviewPapers(ctx, reviewID)
	if err != nil {
		return AgreementResult{}, err
	}

	var pairs []Pair
	for _, paperID := range papers {
		records, err := e.store.Extractions(ctx, reviewID, paperID)
		if err != nil {
			return AgreementResult{}, err
		}
		if len(records) != 2 {
			continue
		}
		pairs = append(pairs, newPair(paperID,
			records[0].ReviewerID, records[1].ReviewerID,
			fieldLabel(records[0].Data, fieldName), fieldLabel(records[1].Data, fieldName)))
	}

	result := AgreementResult{
		ReviewID:   reviewID,
		MetricType: types.MetricExtractionAgreement,
		FieldName:  fieldName,
	}
	return summarize(result, pairs, "no dual-extracted papers")
}

// SaveMetric caches a computed result and returns the metric id.
func SaveMetric(ctx context.Context, s MetricStore, r AgreementResult) (int64, error) {
	if r.NoData {
		return 0, fmt.Errorf("review %d: %w", r.ReviewID, ErrNoData)
	}
	return s.InsertMetric(ctx, r.Metric())
}

func newPair(paperID, r1, r2, l1, l2 string) Pair {
	return Pair{
		PaperID:   paperID,
		Reviewer1: r1,
		Reviewer2: r2,
		Label1:    l1,
		Label2:    l2,
		Agree:     l1 == l2,
	}
}

func fieldLabel(data types.ExtractedData, field string) string {
	v, ok := data[field]
	if !ok {
		return missingLabel
	}
	return v.Canonical()
}

func summarize(result AgreementResult, pairs []Pair, emptyNote string) (AgreementResult, error) {
	result.Disagreements = []Pair{}
	if len(pairs) == 0 {
		result.NoData = true
		result.Note = emptyNote
		return result, nil
	}

	a := make([]string, len(pairs))
	b := make([]string, len(pairs))
	for i, p := range pairs {
		a[i], b[i] = p.Label1, p.Label2
		if p.Agree {
			result.Agreements++
		} else {
			result.Disagreements = append(result.Disagreements, p)
		}
	}

	kappa, err := Kappa(a, b)
	if err != nil {
		return AgreementResult{}, err
	}
	percent, err := PercentAgreement(a, b)
	if err != nil {
		return AgreementResult{}, err
	}

	result.Kappa = kappa
	result.Interpretation = Interpret(kappa)
	result.TotalPapers = len(pairs)
	result.PercentAgreement = percent
	return result, nil
}
