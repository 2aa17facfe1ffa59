package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/reliability"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

func newReliabilityCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reliability",
		Short: "Compute inter-rater agreement (Cohen's kappa)",
		Long: `Reliability compares the two reviewers' labels on every paper rated by
exactly two reviewers and reports Cohen's kappa with its Landis & Koch
interpretation, the raw percent agreement, and the disagreements to
resolve. Results are cached only with --save.`,
	}
	cmd.AddCommand(
		newReliabilityScreeningCommand(ctx),
		newReliabilityExtractionCommand(ctx),
		newReliabilityHistoryCommand(ctx),
	)
	return cmd
}

type agreementFunc func(cmd *cobra.Command, e *reliability.Engine) (reliability.AgreementResult, error)

// runAgreement computes an agreement result, prints it, and caches it when
// save is set.
func runAgreement(ctx *commandContext, cmd *cobra.Command, save, asJSON bool, compute agreementFunc) error {
	return ctx.withStore(func(s *store.Store) error {
		result, err := compute(cmd, reliability.New(s))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			if err := writeJSON(out, result); err != nil {
				return err
			}
		} else {
			printAgreement(out, result)
		}

		if !save {
			return nil
		}
		id, err := reliability.SaveMetric(cmd.Context(), s, result)
		if err != nil {
			return err
		}
		ctx.logger.Info("saved reliability metric", "metric", id, "type", result.MetricType)
		return nil
	})
}

func newReliabilityScreeningCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID     int64
		stage        string
		save, asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "screening",
		Short: "Agreement on screening decisions at a stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !types.Stage(stage).Valid() {
				return fmt.Errorf("unknown stage %q", stage)
			}
			return runAgreement(ctx, cmd, save, asJSON, func(cmd *cobra.Command, e *reliability.Engine) (reliability.AgreementResult, error) {
				return e.ComputeScreeningAgreement(cmd.Context(), reviewID, types.Stage(stage))
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	addStageFlag(cmd, &stage)
	cmd.Flags().BoolVar(&save, "save", false, "cache the result as a reliability metric")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newReliabilityExtractionCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID     int64
		field        string
		save, asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "extraction",
		Short: "Agreement on one extracted field",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgreement(ctx, cmd, save, asJSON, func(cmd *cobra.Command, e *reliability.Engine) (reliability.AgreementResult, error) {
				return e.ComputeExtractionAgreement(cmd.Context(), reviewID, field)
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	cmd.Flags().StringVar(&field, "field", "", "extraction field to compare")
	cmd.Flags().BoolVar(&save, "save", false, "cache the result as a reliability metric")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func printAgreement(out io.Writer, r reliability.AgreementResult) {
	subject := string(r.Stage)
	if r.FieldName != "" {
		subject = r.FieldName
	}
	fmt.Fprintf(out, "Review %d, %s (%s)\n", r.ReviewID, subject, r.MetricType)
	if r.NoData {
		fmt.Fprintf(out, "  %s\n", r.Note)
		return
	}

	fmt.Fprintf(out, "  Kappa:      %.3f (%s)\n", r.Kappa, r.Interpretation)
	fmt.Fprintf(out, "  Agreement:  %s (%d of %d papers)\n",
		formatPercent(r.PercentAgreement), r.Agreements, r.TotalPapers)
	if len(r.Disagreements) == 0 {
		return
	}

	rows := make([][]string, 0, len(r.Disagreements))
	for _, d := range r.Disagreements {
		rows = append(rows, []string{d.PaperID, d.Reviewer1, d.Label1, d.Reviewer2, d.Label2})
	}
	fmt.Fprintln(out, "Disagreements:")
	fmt.Fprintln(out, renderTable(
		[]string{"Paper", "Reviewer 1", "Label", "Reviewer 2", "Label"},
		rows, nil,
	))
}

func newReliabilityHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID int64
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List cached reliability metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				metrics, err := s.Metrics(cmd.Context(), reviewID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, metrics)
				}
				if len(metrics) == 0 {
					fmt.Fprintln(out, "No saved metrics.")
					return nil
				}

				rows := make([][]string, 0, len(metrics))
				for _, m := range metrics {
					subject := string(m.Stage)
					if m.FieldName != "" {
						subject = m.FieldName
					}
					rows = append(rows, []string{
						formatDate(m.CalculatedAt),
						string(m.MetricType),
						subject,
						strconv.FormatFloat(m.Value, 'f', 3, 64),
						m.Interpretation,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Calculated", "Metric", "Stage/Field", "Value", "Interpretation"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
