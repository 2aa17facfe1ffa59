// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package themes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litreview/pkg/types"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested run id.
var ErrSnapshotNotFound = errors.New("suggestion snapshot not found")

// Snapshot is a saved SuggestThemes run. Suggestions are recomputed on every
// call, so accepting one later needs the exact list a reviewer looked at.
type Snapshot struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Result    Result    `yaml:"result"`
}

// SaveSnapshot writes result to dir/<run id>.yaml under a fresh run id.
func SaveSnapshot(dir string, result Result) (Snapshot, error) {
	snap := Snapshot{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("creating snapshot directory: %w", err)
	}
	path := filepath.Join(dir, snap.RunID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Snapshot{}, fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return snap, nil
}

// LoadSnapshot reads the snapshot saved under runID.
func LoadSnapshot(dir, runID string) (Snapshot, error) {
	id, err := uuid.Parse(strings.TrimSpace(runID))
	if err != nil {
		return Snapshot{}, fmt.Errorf("run id %q: %w", runID, ErrSnapshotNotFound)
	}

	path := filepath.Join(dir, id.String()+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("run id %s: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return snap, nil
}

// ThemeStore persists confirmed themes.
type ThemeStore interface {
	InsertTheme(ctx context.Context, t types.Theme) (int64, error)
	GetTheme(ctx context.Context, id int64) (*types.Theme, error)
}

// Accept confirms suggestion index (0-based) of an assisted snapshot as a
// theme of the snapshot's review. The description records how many findings
// and papers backed the suggestion and its example quotes.
func Accept(ctx context.Context, s ThemeStore, snap Snapshot, index int, createdBy string, parentID *int64) (*types.Theme, error) {
	if snap.Result.Mode != ModeAssisted {
		return nil, fmt.Errorf("snapshot %s was a %s run and has no suggestions", snap.RunID, snap.Result.Mode)
	}
	if index < 0 || index >= len(snap.Result.Themes) {
		return nil, fmt.Errorf("snapshot %s has %d suggestions, no index %d", snap.RunID, len(snap.Result.Themes), index)
	}
	if strings.TrimSpace(createdBy) == "" {
		return nil, errors.New("created by is required")
	}

	sug := snap.Result.Themes[index]
	id, err := s.InsertTheme(ctx, types.Theme{
		ReviewID:    snap.Result.ReviewID,
		Name:        sug.SuggestedName,
		Description: describe(sug),
		ParentID:    parentID,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return nil, err
	}
	return s.GetTheme(ctx, id)
}

func describe(sug types.ThemeSuggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggested from %d findings across %d papers.", sug.FindingCount, sug.PaperCount)
	for _, q := range sug.ExampleQuotes {
		fmt.Fprintf(&b, "\n- %s", q)
	}
	return b.String()
}
