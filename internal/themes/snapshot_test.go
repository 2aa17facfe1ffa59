// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package themes

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

func TestSnapshotRoundTrip(t *testing.T) {
	f := newFixture(t, "P1", "P2", "P3")
	f.seedFindings(t)
	ctx := context.Background()

	res, err := New(ctx, f.store, Options{UseAI: true}, newEmbedder(), nil).
		SuggestThemes(ctx, f.reviewID, "main_results")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "suggestions")
	saved, err := SaveSnapshot(dir, res)
	require.NoError(t, err)
	_, err = uuid.Parse(saved.RunID)
	require.NoError(t, err)

	loaded, err := LoadSnapshot(dir, saved.RunID)
	require.NoError(t, err)
	assert.Equal(t, saved.RunID, loaded.RunID)
	assert.True(t, saved.CreatedAt.Equal(loaded.CreatedAt))
	assert.Equal(t, res, loaded.Result)
}

func TestManualSnapshotKeepsExtractedValues(t *testing.T) {
	f := newFixture(t, "P1")
	f.extract(t, "P1", "A", types.ExtractedData{
		"main_results":  types.TextList("Lower BMI near parks"),
		"sample_size":   types.IntValue(500),
		"quality_score": types.NumberValue(7.5),
	})
	ctx := context.Background()

	res, err := New(ctx, f.store, Options{}, nil, nil).SuggestThemes(ctx, f.reviewID, "main_results")
	require.NoError(t, err)

	dir := t.TempDir()
	saved, err := SaveSnapshot(dir, res)
	require.NoError(t, err)
	loaded, err := LoadSnapshot(dir, saved.RunID)
	require.NoError(t, err)

	require.Len(t, loaded.Result.Extractions, 1)
	assert.Equal(t, res.Extractions[0].Data, loaded.Result.Extractions[0].Data)
}

func TestLoadSnapshotUnknown(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSnapshot(dir, uuid.NewString())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, err = LoadSnapshot(dir, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestAccept(t *testing.T) {
	f := newFixture(t, "P1", "P2", "P3")
	f.seedFindings(t)
	ctx := context.Background()

	res, err := New(ctx, f.store, Options{UseAI: true}, newEmbedder(), nil).
		SuggestThemes(ctx, f.reviewID, "main_results")
	require.NoError(t, err)
	snap := Snapshot{RunID: "run-1", Result: res}

	theme, err := Accept(ctx, f.store, snap, 0, "reviewer_A", nil)
	require.NoError(t, err)
	assert.Equal(t, "Urban + Density + Obesity", theme.Name)
	assert.Equal(t, f.reviewID, theme.ReviewID)
	assert.Equal(t, "reviewer_A", theme.CreatedBy)
	assert.Contains(t, theme.Description, "3 findings across 3 papers")
	assert.Contains(t, theme.Description, densityA)

	child, err := Accept(ctx, f.store, snap, 1, "reviewer_A", &theme.ID)
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, theme.ID, *child.ParentID)

	themes, err := f.store.Themes(ctx, f.reviewID)
	require.NoError(t, err)
	assert.Len(t, themes, 2)
}

func TestAcceptRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assisted := Snapshot{RunID: "r", Result: Result{
		Mode: ModeAssisted, ReviewID: f.reviewID,
		Themes: []types.ThemeSuggestion{{SuggestedName: "Walkability", PaperCount: 1, FindingCount: 2}},
	}}
	manual := Snapshot{RunID: "m", Result: Result{Mode: ModeManual, ReviewID: f.reviewID}}

	_, err := Accept(ctx, f.store, assisted, 1, "A", nil)
	assert.Error(t, err)
	_, err = Accept(ctx, f.store, assisted, -1, "A", nil)
	assert.Error(t, err)
	_, err = Accept(ctx, f.store, assisted, 0, " ", nil)
	assert.Error(t, err)
	_, err = Accept(ctx, f.store, manual, 0, "A", nil)
	assert.Error(t, err)

	missing := int64(999)
	_, err = Accept(ctx, f.store, assisted, 0, "A", &missing)
	assert.ErrorIs(t, err, store.ErrNotFound)

	themes, err := f.store.Themes(ctx, f.reviewID)
	require.NoError(t, err)
	assert.Empty(t, themes)
}

func TestTree(t *testing.T) {
	id := func(n int64) *int64 { return &n }
	themes := []types.Theme{
		{ID: 1, Name: "Built environment"},
		{ID: 2, Name: "Density", ParentID: id(1)},
		{ID: 3, Name: "Mental health"},
		{ID: 4, Name: "Green space", ParentID: id(1)},
		{ID: 5, Name: "Parks", ParentID: id(4)},
		{ID: 6, Name: "Orphan", ParentID: id(42)},
	}

	roots := Tree(themes)
	require.Len(t, roots, 3)
	assert.Equal(t, "Built environment", roots[0].Theme.Name)
	assert.Equal(t, "Mental health", roots[1].Theme.Name)
	assert.Equal(t, "Orphan", roots[2].Theme.Name)

	var visited []string
	var depths []int
	Walk(roots, func(n *ThemeNode, depth int) {
		visited = append(visited, n.Theme.Name)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"Built environment", "Density", "Green space", "Parks", "Mental health", "Orphan"}, visited)
	assert.Equal(t, []int{0, 1, 1, 2, 0, 0}, depths)
}
