// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litreview tool.
// Reviews own linked papers, screening decisions, extraction records,
// themes, and cached reliability metrics. Paper identifiers are opaque
// strings supplied by the external paper reader.
package types

import "time"

// ReviewStatus is the lifecycle state of a review project.
type ReviewStatus string

const (
	StatusActive    ReviewStatus = "active"
	StatusCompleted ReviewStatus = "completed"
	StatusArchived  ReviewStatus = "archived"
)

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Review is a literature review project.
type Review struct {
	// ID is the store-generated identifier.
	ID int64 `json:"review_id" yaml:"review_id"`

	// Name is the human-readable project name.
	Name string `json:"review_name" yaml:"review_name"`

	// ResearchQuestion states what the review sets out to answer.
	ResearchQuestion string `json:"research_question" yaml:"research_question"`

	// InclusionCriteria is a free-form JSON object (population, outcome, ...).
	InclusionCriteria map[string]any `json:"inclusion_criteria" yaml:"inclusion_criteria"`

	// Reviewers lists the reviewer identifiers taking part in screening.
	Reviewers []string `json:"reviewers" yaml:"reviewers"`

	// SearchStrategy optionally documents how candidate papers were found.
	SearchStrategy string `json:"search_strategy,omitempty" yaml:"search_strategy,omitempty"`

	// UseAISuggestions enables embedding-assisted theme suggestions.
	UseAISuggestions bool `json:"use_ai_suggestions" yaml:"use_ai_suggestions"`

	// Status is one of active, completed, archived.
	Status ReviewStatus `json:"status" yaml:"status"`

	// CreatedAt is when the review was created.
	CreatedAt time.Time `json:"created_date" yaml:"created_date"`
}

// NewReview holds the caller-supplied fields for creating a review.
type NewReview struct {
	Name              string
	ResearchQuestion  string
	InclusionCriteria map[string]any
	Reviewers         []string
	SearchStrategy    string
	UseAISuggestions  bool
}

// Stage is a screening stage.
type Stage string

const (
	StageTitleAbstract Stage = "title_abstract"
	StageFullText      Stage = "full_text"
	StageQuality       Stage = "quality"
)

// Stages lists the screening stages in workflow order.
var Stages = []Stage{StageTitleAbstract, StageFullText, StageQuality}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageTitleAbstract, StageFullText, StageQuality:
		return true
	}
	return false
}

// Decision is a reviewer's screening verdict.
type Decision string

const (
	DecisionInclude Decision = "include"
	DecisionExclude Decision = "exclude"
	DecisionMaybe   Decision = "maybe"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionInclude, DecisionExclude, DecisionMaybe:
		return true
	}
	return false
}

// ScreeningDecision records one reviewer's verdict on one paper at one stage.
// Decisions are immutable once written.
type ScreeningDecision struct {
	ID         int64     `json:"screening_id" yaml:"screening_id"`
	ReviewID   int64     `json:"review_id" yaml:"review_id"`
	PaperID    string    `json:"paper_id" yaml:"paper_id"`
	ReviewerID string    `json:"reviewer_id" yaml:"reviewer_id"`
	Stage      Stage     `json:"stage" yaml:"stage"`
	Decision   Decision  `json:"decision" yaml:"decision"`
	Rationale  string    `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// ExtractionRecord is the structured data one reviewer extracted from a paper
// using a named template.
type ExtractionRecord struct {
	ID           int64         `json:"extraction_id" yaml:"extraction_id"`
	ReviewID     int64         `json:"review_id" yaml:"review_id"`
	PaperID      string        `json:"paper_id" yaml:"paper_id"`
	ReviewerID   string        `json:"reviewer_id" yaml:"reviewer_id"`
	TemplateName string        `json:"template_name" yaml:"template_name"`
	Data         ExtractedData `json:"extracted_data" yaml:"extracted_data"`
	Timestamp    time.Time     `json:"timestamp" yaml:"timestamp"`
}

// Theme is a human-confirmed qualitative category. Themes form a tree
// through ParentID.
type Theme struct {
	ID          int64     `json:"theme_id" yaml:"theme_id"`
	ReviewID    int64     `json:"review_id" yaml:"review_id"`
	Name        string    `json:"theme_name" yaml:"theme_name"`
	Description string    `json:"theme_description,omitempty" yaml:"theme_description,omitempty"`
	ParentID    *int64    `json:"parent_theme_id,omitempty" yaml:"parent_theme_id,omitempty"`
	CreatedBy   string    `json:"created_by" yaml:"created_by"`
	CreatedAt   time.Time `json:"timestamp" yaml:"timestamp"`
}

// ThemeSuggestion is an unconfirmed cluster of similar findings.
type ThemeSuggestion struct {
	SuggestedName string   `json:"suggested_name" yaml:"suggested_name"`
	ExampleQuotes []string `json:"example_quotes" yaml:"example_quotes"`
	PaperIDs      []string `json:"paper_ids" yaml:"paper_ids"`
	PaperCount    int      `json:"paper_count" yaml:"paper_count"`
	FindingCount  int      `json:"finding_count" yaml:"finding_count"`
}

// MetricType identifies what a cached reliability metric measures.
type MetricType string

const (
	MetricScreeningKappa      MetricType = "screening_kappa"
	MetricExtractionAgreement MetricType = "extraction_agreement"
	MetricCodingKappa         MetricType = "coding_kappa"
)

// ReliabilityMetric is a cached snapshot of a reliability computation.
// Nothing keeps it fresh; callers decide when to recompute.
type ReliabilityMetric struct {
	ID             int64      `json:"metric_id" yaml:"metric_id"`
	ReviewID       int64      `json:"review_id" yaml:"review_id"`
	MetricType     MetricType `json:"metric_type" yaml:"metric_type"`
	Stage          Stage      `json:"stage,omitempty" yaml:"stage,omitempty"`
	FieldName      string     `json:"field_name,omitempty" yaml:"field_name,omitempty"`
	Value          float64    `json:"value" yaml:"value"`
	Interpretation string     `json:"interpretation" yaml:"interpretation"`
	CalculatedAt   time.Time  `json:"calculated_date" yaml:"calculated_date"`
}
