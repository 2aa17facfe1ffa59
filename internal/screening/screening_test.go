// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screening

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

func setup(t *testing.T, papers ...string) (*Workflow, *store.Store, int64) {
	t.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	id, err := s.CreateReview(ctx, types.NewReview{
		Name:             "Test",
		ResearchQuestion: "Q?",
		Reviewers:        []string{"reviewer_A", "reviewer_B"},
	})
	require.NoError(t, err)
	for _, p := range papers {
		require.NoError(t, s.LinkPaper(ctx, id, p))
	}
	return New(s), s, id
}

func TestRecordDecisionExcludeRequiresRationale(t *testing.T) {
	w, _, id := setup(t, "paper_001")
	ctx := context.Background()

	for _, rationale := range []string{"", "   "} {
		_, err := w.RecordDecision(ctx, id, "paper_001", "reviewer_A",
			types.StageTitleAbstract, types.DecisionExclude, rationale)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "rationale", verr.Field)
	}
}

func TestRecordDecisionExcludeWithRationale(t *testing.T) {
	w, s, id := setup(t, "paper_001")
	ctx := context.Background()

	sid, err := w.RecordDecision(ctx, id, "paper_001", "reviewer_A",
		types.StageTitleAbstract, types.DecisionExclude, "Not in scope")
	require.NoError(t, err)
	assert.Positive(t, sid)

	decisions, err := s.ScreeningDecisions(ctx, id, "paper_001", types.StageTitleAbstract)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "Not in scope", decisions[0].Rationale)
}

func TestRecordDecisionOnlyExcludeNeedsRationale(t *testing.T) {
	w, _, id := setup(t, "paper_001")
	ctx := context.Background()

	_, err := w.RecordDecision(ctx, id, "paper_001", "reviewer_A", types.StageTitleAbstract, types.DecisionInclude, "")
	assert.NoError(t, err)
	_, err = w.RecordDecision(ctx, id, "paper_001", "reviewer_B", types.StageTitleAbstract, types.DecisionMaybe, "")
	assert.NoError(t, err)
}

func TestRecordDecisionRejectsUnknownValues(t *testing.T) {
	w, _, id := setup(t, "paper_001")
	ctx := context.Background()

	tests := []struct {
		name      string
		paper     string
		reviewer  string
		stage     types.Stage
		decision  types.Decision
		wantField string
	}{
		{"unknown stage", "paper_001", "reviewer_A", "abstract", types.DecisionInclude, "stage"},
		{"unknown decision", "paper_001", "reviewer_A", types.StageFullText, "accept", "decision"},
		{"missing paper", "", "reviewer_A", types.StageFullText, types.DecisionInclude, "paper"},
		{"missing reviewer", "paper_001", " ", types.StageFullText, types.DecisionInclude, "reviewer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.RecordDecision(ctx, id, tt.paper, tt.reviewer, tt.stage, tt.decision, "")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestRecordDecisionDuplicate(t *testing.T) {
	w, _, id := setup(t, "paper_001")
	ctx := context.Background()

	_, err := w.RecordDecision(ctx, id, "paper_001", "reviewer_A", types.StageTitleAbstract, types.DecisionInclude, "")
	require.NoError(t, err)
	_, err = w.RecordDecision(ctx, id, "paper_001", "reviewer_A", types.StageTitleAbstract, types.DecisionExclude, "Changed my mind")
	assert.ErrorIs(t, err, store.ErrDuplicateDecision)
}

func TestPapersAwaitingReview(t *testing.T) {
	w, _, id := setup(t, "paper_001", "paper_002", "paper_003")
	ctx := context.Background()

	_, err := w.RecordDecision(ctx, id, "paper_002", "reviewer_A", types.StageTitleAbstract, types.DecisionInclude, "")
	require.NoError(t, err)
	// Other reviewers and other stages do not count.
	_, err = w.RecordDecision(ctx, id, "paper_001", "reviewer_B", types.StageTitleAbstract, types.DecisionInclude, "")
	require.NoError(t, err)
	_, err = w.RecordDecision(ctx, id, "paper_003", "reviewer_A", types.StageFullText, types.DecisionInclude, "")
	require.NoError(t, err)

	awaiting, err := w.PapersAwaitingReview(ctx, id, "reviewer_A", types.StageTitleAbstract)
	require.NoError(t, err)
	assert.Equal(t, []string{"paper_001", "paper_003"}, awaiting)

	awaiting, err = w.PapersAwaitingReview(ctx, id, "reviewer_B", types.StageTitleAbstract)
	require.NoError(t, err)
	assert.Equal(t, []string{"paper_002", "paper_003"}, awaiting)
}

func TestPapersAwaitingReviewEmpty(t *testing.T) {
	w, _, id := setup(t)

	awaiting, err := w.PapersAwaitingReview(context.Background(), id, "reviewer_A", types.StageQuality)
	require.NoError(t, err)
	assert.NotNil(t, awaiting)
	assert.Empty(t, awaiting)
}

func TestProgress(t *testing.T) {
	w, _, id := setup(t, "paper_001", "paper_002", "paper_003")
	ctx := context.Background()

	record := func(paper, reviewer string, d types.Decision, rationale string) {
		t.Helper()
		_, err := w.RecordDecision(ctx, id, paper, reviewer, types.StageTitleAbstract, d, rationale)
		require.NoError(t, err)
	}
	record("paper_001", "reviewer_A", types.DecisionInclude, "")
	record("paper_002", "reviewer_A", types.DecisionExclude, "Wrong population")
	record("paper_001", "reviewer_B", types.DecisionMaybe, "")
	record("paper_001", "guest", types.DecisionInclude, "")

	progress, err := w.Progress(ctx, id, types.StageTitleAbstract)
	require.NoError(t, err)
	require.Len(t, progress, 3)

	assert.Equal(t, "reviewer_A", progress[0].ReviewerID)
	assert.Equal(t, 2, progress[0].Screened)
	assert.Equal(t, 1, progress[0].Remaining)
	assert.Equal(t, 1, progress[0].ByDecision[types.DecisionExclude])

	assert.Equal(t, "reviewer_B", progress[1].ReviewerID)
	assert.Equal(t, 1, progress[1].Screened)
	assert.Equal(t, 2, progress[1].Remaining)

	assert.Equal(t, "guest", progress[2].ReviewerID)
}
