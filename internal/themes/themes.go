// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package themes proposes candidate themes from extracted findings.
//
// A Synthesizer runs in one of two modes fixed at construction. Manual mode
// returns the matching extractions verbatim for a human to code. Assisted
// mode embeds every finding, clusters the vectors with DBSCAN over cosine
// distance, and names each cluster from its most frequent words. Nothing in
// this package persists a theme on its own; Accept is the explicit
// confirmation step.
package themes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pdiddy/litreview/pkg/types"
)

// Mode is the strategy a Synthesizer runs.
type Mode string

const (
	ModeManual   Mode = "manual"
	ModeAssisted Mode = "assisted"
)

// Default clustering parameters.
const (
	DefaultEps       = 0.5
	DefaultMinPoints = 2
	DefaultMaxQuotes = 5
)

// NoTextNote is the Result note when assisted mode finds nothing to cluster.
const NoTextNote = "no text to cluster"

// Store is the subset of the review store the synthesizer reads.
type Store interface {
	ReviewPapers(ctx context.Context, reviewID int64) ([]string, error)
	Extractions(ctx context.Context, reviewID int64, paperID string) ([]types.ExtractionRecord, error)
}

// Embedder turns texts into vectors. Probe reports whether the backend can
// serve requests at all.
type Embedder interface {
	Probe(ctx context.Context) error
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// MissingDependencyError records why assisted mode was requested but not
// available. It is logged when the synthesizer falls back to manual mode.
type MissingDependencyError struct {
	Capability string
	Err        error
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Capability, e.Err)
}

func (e *MissingDependencyError) Unwrap() error { return e.Err }

// Options tune the synthesizer. Zero values take the defaults.
type Options struct {
	// UseAI requests assisted mode.
	UseAI bool

	// Eps is the DBSCAN neighbourhood radius in cosine distance.
	Eps float64

	// MinPoints is the DBSCAN core-point threshold, counting the point itself.
	MinPoints int

	// MaxQuotes caps the example quotes kept per suggestion.
	MaxQuotes int
}

func (o Options) withDefaults() Options {
	if o.Eps <= 0 {
		o.Eps = DefaultEps
	}
	if o.MinPoints <= 0 {
		o.MinPoints = DefaultMinPoints
	}
	if o.MaxQuotes <= 0 {
		o.MaxQuotes = DefaultMaxQuotes
	}
	return o
}

// Result is the outcome of SuggestThemes. Manual results carry Extractions;
// assisted results carry Themes and the finding counts.
type Result struct {
	Mode      Mode   `json:"mode" yaml:"mode"`
	ReviewID  int64  `json:"review_id" yaml:"review_id"`
	FieldName string `json:"field_name" yaml:"field_name"`

	Extractions []types.ExtractionRecord `json:"extractions,omitempty" yaml:"extractions,omitempty"`

	Themes              []types.ThemeSuggestion `json:"themes,omitempty" yaml:"themes,omitempty"`
	Note                string                  `json:"note,omitempty" yaml:"note,omitempty"`
	TotalFindings       int                     `json:"total_findings" yaml:"total_findings"`
	ClusteredFindings   int                     `json:"clustered_findings" yaml:"clustered_findings"`
	UnclusteredFindings int                     `json:"unclustered_findings" yaml:"unclustered_findings"`
}

// Finding is one clusterable text and the paper it came from.
type Finding struct {
	Text    string
	PaperID string
}

type strategy interface {
	mode() Mode
	suggest(ctx context.Context, field string, extractions []types.ExtractionRecord) (Result, error)
}

// Synthesizer suggests themes for a review.
type Synthesizer struct {
	store    Store
	strategy strategy
	missing  *MissingDependencyError
	logger   *slog.Logger
}

// New builds a Synthesizer. When opts.UseAI is set the embedder is probed
// once; if it is nil or the probe fails the synthesizer runs in manual mode
// for its whole life.
func New(ctx context.Context, s Store, opts Options, embedder Embedder, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	syn := &Synthesizer{store: s, strategy: manual{}, logger: logger}
	if !opts.UseAI {
		return syn
	}

	var err error
	if embedder == nil {
		err = fmt.Errorf("no embedder configured")
	} else {
		err = embedder.Probe(ctx)
	}
	if err != nil {
		syn.missing = &MissingDependencyError{Capability: "embedding", Err: err}
		logger.Warn("theme suggestions fall back to manual mode", "error", syn.missing)
		return syn
	}

	syn.strategy = assisted{embedder: embedder, opts: opts}
	return syn
}

// Mode reports the strategy chosen at construction.
func (s *Synthesizer) Mode() Mode { return s.strategy.mode() }

// Missing returns why assisted mode was unavailable, or nil.
func (s *Synthesizer) Missing() *MissingDependencyError { return s.missing }

// SuggestThemes gathers every extraction of the review's linked papers that
// contains fieldName and hands them to the mode's strategy. Storage and
// embedding transport errors propagate.
func (s *Synthesizer) SuggestThemes(ctx context.Context, reviewID int64, fieldName string) (Result, error) {
	extractions, err := s.extractionsWithField(ctx, reviewID, fieldName)
	if err != nil {
		return Result{}, err
	}

	result, err := s.strategy.suggest(ctx, fieldName, extractions)
	if err != nil {
		return Result{}, err
	}
	result.Mode = s.strategy.mode()
	result.ReviewID = reviewID
	result.FieldName = fieldName

	s.logger.Debug("suggested themes",
		"review", reviewID,
		"field", fieldName,
		"mode", result.Mode,
		"themes", len(result.Themes),
		"findings", result.TotalFindings)
	return result, nil
}

func (s *Synthesizer) extractionsWithField(ctx context.Context, reviewID int64, field string) ([]types.ExtractionRecord, error) {
	papers, err := s.store.ReviewPapers(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	out := []types.ExtractionRecord{}
	for _, paperID := range papers {
		records, err := s.store.Extractions(ctx, reviewID, paperID)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if r.Data.Has(field) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

type manual struct{}

func (manual) mode() Mode { return ModeManual }

func (manual) suggest(_ context.Context, _ string, extractions []types.ExtractionRecord) (Result, error) {
	return Result{Extractions: extractions}, nil
}

type assisted struct {
	embedder Embedder
	opts     Options
}

func (assisted) mode() Mode { return ModeAssisted }

func (a assisted) suggest(ctx context.Context, field string, extractions []types.ExtractionRecord) (Result, error) {
	findings := Flatten(extractions, field)
	if len(findings) == 0 {
		return Result{Themes: []types.ThemeSuggestion{}, Note: NoTextNote}, nil
	}

	texts := make([]string, len(findings))
	for i, f := range findings {
		texts[i] = f.Text
	}
	vectors, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return Result{}, fmt.Errorf("embedding findings: %w", err)
	}
	if len(vectors) != len(findings) {
		return Result{}, fmt.Errorf("embedding findings: got %d vectors for %d texts", len(vectors), len(findings))
	}

	labels := DBSCAN(vectors, a.opts.Eps, a.opts.MinPoints)
	themes := BuildSuggestions(findings, labels, a.opts.MaxQuotes)

	result := Result{
		Themes:        themes,
		TotalFindings: len(findings),
	}
	for _, l := range labels {
		if l == Noise {
			result.UnclusteredFindings++
		} else {
			result.ClusteredFindings++
		}
	}
	return result, nil
}

// Flatten turns the field's values into findings: one per non-empty scalar,
// one per non-empty list element. Objects are rendered as canonical JSON.
func Flatten(extractions []types.ExtractionRecord, field string) []Finding {
	var out []Finding
	for _, r := range extractions {
		v, ok := r.Data[field]
		if !ok {
			continue
		}
		for _, text := range v.Texts() {
			out = append(out, Finding{Text: text, PaperID: r.PaperID})
		}
	}
	return out
}

// BuildSuggestions turns DBSCAN labels into theme suggestions, one per
// cluster, sorted by paper count descending. Clusters with equal paper counts
// keep discovery order. Noise points are skipped.
func BuildSuggestions(findings []Finding, labels []int, maxQuotes int) []types.ThemeSuggestion {
	clusters := 0
	for _, l := range labels {
		if l+1 > clusters {
			clusters = l + 1
		}
	}

	members := make([][]Finding, clusters)
	for i, l := range labels {
		if l != Noise {
			members[l] = append(members[l], findings[i])
		}
	}

	out := make([]types.ThemeSuggestion, 0, clusters)
	for c, group := range members {
		if len(group) == 0 {
			continue
		}
		texts := make([]string, len(group))
		seen := make(map[string]bool)
		var papers []string
		for i, f := range group {
			texts[i] = f.Text
			if !seen[f.PaperID] {
				seen[f.PaperID] = true
				papers = append(papers, f.PaperID)
			}
		}

		name := SuggestName(texts)
		if name == "" {
			name = fmt.Sprintf("Theme %d", c+1)
		}
		quotes := texts
		if len(quotes) > maxQuotes {
			quotes = quotes[:maxQuotes]
		}

		out = append(out, types.ThemeSuggestion{
			SuggestedName: name,
			ExampleQuotes: append([]string(nil), quotes...),
			PaperIDs:      papers,
			PaperCount:    len(papers),
			FindingCount:  len(group),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaperCount > out[j].PaperCount
	})
	return out
}
