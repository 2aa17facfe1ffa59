package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/screening"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

func newScreenCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Record screening decisions and track progress",
		Long: `Screen records each reviewer's include, exclude, or maybe decision on a
paper at one of the stages title_abstract, full_text, or quality. Exclude
decisions require a rationale. Decisions are immutable.`,
	}
	cmd.AddCommand(
		newScreenRecordCommand(ctx),
		newScreenPendingCommand(ctx),
		newScreenProgressCommand(ctx),
	)
	return cmd
}

func addStageFlag(cmd *cobra.Command, stage *string) {
	cmd.Flags().StringVar(stage, "stage", string(types.StageTitleAbstract), "screening stage: title_abstract, full_text, quality")
}

func newScreenRecordCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID  int64
		paper     string
		reviewer  string
		stage     string
		decision  string
		rationale string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one reviewer's decision on a paper",
		Example: `  litreview screen record --review 1 --paper P1 --reviewer alice --decision include
  litreview screen record --review 1 --paper P2 --reviewer alice --decision exclude \
    --rationale "children only; criteria require adults"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				id, err := screening.New(s).RecordDecision(cmd.Context(), reviewID,
					paper, reviewer, types.Stage(stage), types.Decision(decision), rationale)
				if err != nil {
					return err
				}
				ctx.logger.Debug("recorded decision", "screening", id, "paper", paper, "reviewer", reviewer)
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s by %s at %s\n", decision, paper, reviewer, stage)
				return nil
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	addStageFlag(cmd, &stage)
	f := cmd.Flags()
	f.StringVar(&paper, "paper", "", "paper id")
	f.StringVar(&reviewer, "reviewer", "", "reviewer id")
	f.StringVar(&decision, "decision", "", "include, exclude, or maybe")
	f.StringVar(&rationale, "rationale", "", "reason for the decision (required for exclude)")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

func newScreenPendingCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID        int64
		reviewer, stage string
		asJSON          bool
	)

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List papers a reviewer has not screened yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				papers, err := screening.New(s).PapersAwaitingReview(cmd.Context(), reviewID, reviewer, types.Stage(stage))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, papers)
				}
				if len(papers) == 0 {
					fmt.Fprintf(out, "Nothing left for %s at %s.\n", reviewer, stage)
					return nil
				}
				for _, p := range papers {
					fmt.Fprintln(out, p)
				}
				return nil
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	addStageFlag(cmd, &stage)
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "reviewer id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("reviewer")
	return cmd
}

func newScreenProgressCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID int64
		stage    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show per-reviewer screening progress at a stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !types.Stage(stage).Valid() {
				return fmt.Errorf("unknown stage %q", stage)
			}
			return ctx.withStore(func(s *store.Store) error {
				progress, err := screening.New(s).Progress(cmd.Context(), reviewID, types.Stage(stage))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, progress)
				}
				if len(progress) == 0 {
					fmt.Fprintln(out, "No reviewers.")
					return nil
				}

				rows := make([][]string, 0, len(progress))
				for _, p := range progress {
					rows = append(rows, []string{
						p.ReviewerID,
						strconv.Itoa(p.Screened),
						strconv.Itoa(p.Remaining),
						decisionCounts(p.ByDecision),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Reviewer", "Screened", "Remaining", "Decisions"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	addStageFlag(cmd, &stage)
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func decisionCounts(counts map[types.Decision]int) string {
	var parts []string
	for _, d := range []types.Decision{types.DecisionInclude, types.DecisionExclude, types.DecisionMaybe} {
		if n := counts[d]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", d, n))
		}
	}
	return strings.Join(parts, ", ")
}
