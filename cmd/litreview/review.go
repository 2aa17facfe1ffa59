package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Create and inspect review projects",
	}
	cmd.AddCommand(
		newReviewCreateCommand(ctx),
		newReviewShowCommand(ctx),
		newReviewListCommand(ctx),
		newReviewStatusCommand(ctx),
		newReviewLinkCommand(ctx),
	)
	return cmd
}

func newReviewCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		name, question, criteria, strategy string
		reviewers                          []string
		useAI, noAI                        bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new review project",
		Long: `Create a review with a research question, inclusion criteria given as a
JSON object, and the reviewers who will screen papers.`,
		Example: `  litreview review create --name "Built environment and obesity" \
    --question "Is urban density associated with adult obesity?" \
    --reviewers alice,bob \
    --criteria '{"population":"adults","outcome":"BMI"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			if strings.TrimSpace(question) == "" {
				return errors.New("--question is required")
			}
			if cmd.Flags().Changed("ai") && noAI {
				return errors.New("--ai and --no-ai are mutually exclusive")
			}

			parsed, err := parseCriteria(criteria)
			if err != nil {
				return err
			}

			return ctx.withStore(func(s *store.Store) error {
				id, err := s.CreateReview(cmd.Context(), types.NewReview{
					Name:              name,
					ResearchQuestion:  question,
					InclusionCriteria: parsed,
					Reviewers:         trimAll(reviewers),
					SearchStrategy:    strategy,
					UseAISuggestions:  useAI && !noAI,
				})
				if err != nil {
					return err
				}
				ctx.logger.Debug("created review", "review", id, "db", ctx.cfg.Store.Path)
				fmt.Fprintf(cmd.OutOrStdout(), "Created review %d: %s\n", id, name)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "review name")
	f.StringVar(&question, "question", "", "research question")
	f.StringSliceVar(&reviewers, "reviewers", nil, "comma-separated reviewer ids")
	f.StringVar(&criteria, "criteria", "", "inclusion criteria as a JSON object")
	f.StringVar(&strategy, "search-strategy", "", "how candidate papers were found")
	f.BoolVar(&useAI, "ai", true, "enable embedding-assisted theme suggestions")
	f.BoolVar(&noAI, "no-ai", false, "disable embedding-assisted theme suggestions")
	return cmd
}

// parseCriteria decodes the --criteria flag. An empty flag means no criteria.
func parseCriteria(raw string) (map[string]any, error) {
	criteria := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return criteria, nil
	}
	if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
		return nil, fmt.Errorf("invalid --criteria: must be a JSON object: %w", err)
	}
	if criteria == nil {
		return nil, errors.New("invalid --criteria: must be a JSON object")
	}
	return criteria, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func newReviewShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show REVIEW_ID",
		Short: "Show a review and its linked papers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(s *store.Store) error {
				review, err := s.GetReview(cmd.Context(), id)
				if err != nil {
					return err
				}
				papers, err := s.ReviewPapers(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, struct {
						*types.Review
						Papers []string `json:"papers"`
					}{review, papers})
				}

				criteria, _ := json.Marshal(review.InclusionCriteria)
				fmt.Fprintf(out, "Review %d: %s\n", review.ID, review.Name)
				fmt.Fprintf(out, "  Question:   %s\n", review.ResearchQuestion)
				fmt.Fprintf(out, "  Criteria:   %s\n", criteria)
				fmt.Fprintf(out, "  Reviewers:  %s\n", strings.Join(review.Reviewers, ", "))
				if review.SearchStrategy != "" {
					fmt.Fprintf(out, "  Strategy:   %s\n", review.SearchStrategy)
				}
				fmt.Fprintf(out, "  AI themes:  %t\n", review.UseAISuggestions)
				fmt.Fprintf(out, "  Status:     %s\n", review.Status)
				fmt.Fprintf(out, "  Created:    %s\n", formatDate(review.CreatedAt))
				fmt.Fprintf(out, "  Papers:     %d\n", len(papers))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				reviews, err := s.ListReviews(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, reviews)
				}
				if len(reviews) == 0 {
					fmt.Fprintln(out, "No reviews.")
					return nil
				}

				rows := make([][]string, 0, len(reviews))
				for _, r := range reviews {
					rows = append(rows, []string{
						formatID(r.ID),
						r.Name,
						string(r.Status),
						strings.Join(r.Reviewers, ", "),
						formatDate(r.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Status", "Reviewers", "Created"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newReviewStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status REVIEW_ID active|completed|archived",
		Short: "Change a review's lifecycle status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := types.ReviewStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown status %q (want active, completed, or archived)", args[1])
			}
			return ctx.withStore(func(s *store.Store) error {
				if err := s.SetReviewStatus(cmd.Context(), id, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Review %d is now %s\n", id, status)
				return nil
			})
		},
	}
}

func newReviewLinkCommand(ctx *commandContext) *cobra.Command {
	var reviewID int64

	cmd := &cobra.Command{
		Use:   "link PAPER_ID...",
		Short: "Link papers to a review",
		Long: `Link papers to a review by their identifiers in the external paper
reader. Linking a paper twice is a no-op.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				for _, paperID := range args {
					if err := s.LinkPaper(cmd.Context(), reviewID, paperID); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Linked %d paper(s) to review %d\n", len(args), reviewID)
				return nil
			})
		},
	}
	addReviewFlag(cmd, &reviewID)
	return cmd
}

func addReviewFlag(cmd *cobra.Command, id *int64) {
	cmd.Flags().Int64Var(id, "review", 0, "review id")
	_ = cmd.MarkFlagRequired("review")
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
