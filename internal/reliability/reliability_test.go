// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reliability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/internal/screening"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

type fixture struct {
	store    *store.Store
	workflow *screening.Workflow
	engine   *Engine
	reviewID int64
}

func newFixture(t *testing.T, papers ...string) *fixture {
	t.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	id, err := s.CreateReview(ctx, types.NewReview{Name: "Test", ResearchQuestion: "Q?"})
	require.NoError(t, err)
	for _, p := range papers {
		require.NoError(t, s.LinkPaper(ctx, id, p))
	}
	return &fixture{store: s, workflow: screening.New(s), engine: New(s), reviewID: id}
}

func (f *fixture) decide(t *testing.T, paper, reviewer string, d types.Decision, rationale string) {
	t.Helper()
	_, err := f.workflow.RecordDecision(context.Background(), f.reviewID, paper, reviewer,
		types.StageTitleAbstract, d, rationale)
	require.NoError(t, err)
}

func TestScreeningAgreementPerfect(t *testing.T) {
	f := newFixture(t, "P1", "P2")
	f.decide(t, "P1", "A", types.DecisionInclude, "")
	f.decide(t, "P2", "A", types.DecisionExclude, "Out of scope")
	f.decide(t, "P1", "B", types.DecisionInclude, "")
	f.decide(t, "P2", "B", types.DecisionExclude, "Out of scope")

	res, err := f.engine.ComputeScreeningAgreement(context.Background(), f.reviewID, types.StageTitleAbstract)
	require.NoError(t, err)

	assert.False(t, res.NoData)
	assert.Equal(t, 1.0, res.Kappa)
	assert.Equal(t, AlmostPerfect, res.Interpretation)
	assert.Equal(t, 100.0, res.PercentAgreement)
	assert.Equal(t, 2, res.TotalPapers)
	assert.Equal(t, 2, res.Agreements)
	assert.Empty(t, res.Disagreements)
}

func TestScreeningAgreementTotalDisagreement(t *testing.T) {
	f := newFixture(t, "P1", "P2")
	f.decide(t, "P1", "A", types.DecisionInclude, "")
	f.decide(t, "P2", "A", types.DecisionExclude, "Bad")
	f.decide(t, "P1", "B", types.DecisionExclude, "Bad")
	f.decide(t, "P2", "B", types.DecisionInclude, "")

	res, err := f.engine.ComputeScreeningAgreement(context.Background(), f.reviewID, types.StageTitleAbstract)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.PercentAgreement)
	assert.Less(t, res.Kappa, 0.20)
	assert.Equal(t, Poor, res.Interpretation)
	require.Len(t, res.Disagreements, 2)

	d := res.Disagreements[0]
	assert.Equal(t, "P1", d.PaperID)
	assert.Equal(t, "A", d.Reviewer1)
	assert.Equal(t, "B", d.Reviewer2)
	assert.Equal(t, "include", d.Label1)
	assert.Equal(t, "exclude", d.Label2)
	assert.False(t, d.Agree)
}

func TestScreeningAgreementOnlyDualScreened(t *testing.T) {
	f := newFixture(t, "single", "dual", "triple", "none")
	f.decide(t, "single", "A", types.DecisionInclude, "")
	f.decide(t, "dual", "A", types.DecisionInclude, "")
	f.decide(t, "dual", "B", types.DecisionMaybe, "")
	f.decide(t, "triple", "A", types.DecisionInclude, "")
	f.decide(t, "triple", "B", types.DecisionInclude, "")
	f.decide(t, "triple", "C", types.DecisionInclude, "")

	res, err := f.engine.ComputeScreeningAgreement(context.Background(), f.reviewID, types.StageTitleAbstract)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalPapers)
	require.Len(t, res.Disagreements, 1)
	assert.Equal(t, "dual", res.Disagreements[0].PaperID)
}

func TestScreeningAgreementNoDualScreened(t *testing.T) {
	f := newFixture(t, "P1")
	f.decide(t, "P1", "A", types.DecisionInclude, "")

	res, err := f.engine.ComputeScreeningAgreement(context.Background(), f.reviewID, types.StageTitleAbstract)
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.Equal(t, "no dual-screened papers", res.Note)

	_, err = SaveMetric(context.Background(), f.store, res)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestScreeningAgreementOtherStageIgnored(t *testing.T) {
	f := newFixture(t, "P1")
	f.decide(t, "P1", "A", types.DecisionInclude, "")
	f.decide(t, "P1", "B", types.DecisionInclude, "")

	res, err := f.engine.ComputeScreeningAgreement(context.Background(), f.reviewID, types.StageFullText)
	require.NoError(t, err)
	assert.True(t, res.NoData)
}

func TestScreeningAgreementIsIdempotent(t *testing.T) {
	f := newFixture(t, "P1", "P2", "P3")
	f.decide(t, "P1", "A", types.DecisionInclude, "")
	f.decide(t, "P1", "B", types.DecisionMaybe, "")
	f.decide(t, "P2", "A", types.DecisionExclude, "Wrong population")
	f.decide(t, "P2", "B", types.DecisionExclude, "Out of scope")
	f.decide(t, "P3", "A", types.DecisionInclude, "")
	f.decide(t, "P3", "B", types.DecisionInclude, "")

	ctx := context.Background()
	first, err := f.engine.ComputeScreeningAgreement(ctx, f.reviewID, types.StageTitleAbstract)
	require.NoError(t, err)
	second, err := f.engine.ComputeScreeningAgreement(ctx, f.reviewID, types.StageTitleAbstract)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSaveMetric(t *testing.T) {
	f := newFixture(t, "P1", "P2")
	f.decide(t, "P1", "A", types.DecisionInclude, "")
	f.decide(t, "P1", "B", types.DecisionInclude, "")
	f.decide(t, "P2", "A", types.DecisionInclude, "")
	f.decide(t, "P2", "B", types.DecisionExclude, "No outcome data")

	ctx := context.Background()
	res, err := f.engine.ComputeScreeningAgreement(ctx, f.reviewID, types.StageTitleAbstract)
	require.NoError(t, err)

	// Computing alone writes nothing.
	metrics, err := f.store.Metrics(ctx, f.reviewID)
	require.NoError(t, err)
	assert.Empty(t, metrics)

	id, err := SaveMetric(ctx, f.store, res)
	require.NoError(t, err)
	assert.Positive(t, id)

	metrics, err = f.store.Metrics(ctx, f.reviewID)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, types.MetricScreeningKappa, metrics[0].MetricType)
	assert.Equal(t, types.StageTitleAbstract, metrics[0].Stage)
	assert.InDelta(t, res.Kappa, metrics[0].Value, 1e-12)
	assert.Equal(t, res.Interpretation, metrics[0].Interpretation)
}

func TestExtractionAgreement(t *testing.T) {
	f := newFixture(t, "P1", "P2", "P3")
	ctx := context.Background()

	insert := func(paper, reviewer string, data types.ExtractedData) {
		t.Helper()
		_, err := f.store.InsertExtraction(ctx, types.ExtractionRecord{
			ReviewID: f.reviewID, PaperID: paper, ReviewerID: reviewer,
			TemplateName: "observational_study", Data: data,
		})
		require.NoError(t, err)
	}
	insert("P1", "A", types.ExtractedData{"study_design": types.TextValue("cohort")})
	insert("P1", "B", types.ExtractedData{"study_design": types.TextValue("cohort")})
	insert("P2", "A", types.ExtractedData{"study_design": types.TextValue("cross_sectional")})
	insert("P2", "B", types.ExtractedData{"sample_size": types.IntValue(10)})
	insert("P3", "A", types.ExtractedData{"study_design": types.TextValue("cohort")})

	res, err := f.engine.ComputeExtractionAgreement(ctx, f.reviewID, "study_design")
	require.NoError(t, err)

	assert.Equal(t, types.MetricExtractionAgreement, res.MetricType)
	assert.Equal(t, 2, res.TotalPapers)
	assert.Equal(t, 50.0, res.PercentAgreement)
	require.Len(t, res.Disagreements, 1)
	assert.Equal(t, "P2", res.Disagreements[0].PaperID)
	assert.Equal(t, missingLabel, res.Disagreements[0].Label2)

	_, err = f.engine.ComputeExtractionAgreement(ctx, f.reviewID, "")
	assert.Error(t, err)
}

func TestExtractionAgreementNoData(t *testing.T) {
	f := newFixture(t, "P1")

	res, err := f.engine.ComputeExtractionAgreement(context.Background(), f.reviewID, "main_results")
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.Equal(t, "no dual-extracted papers", res.Note)
}
