package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/embed"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/internal/themes"
	"github.com/pdiddy/litreview/pkg/types"
)

func newThemesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Suggest, confirm, and browse themes",
		Long: `Themes clusters extracted findings into candidate themes when the review
enables AI suggestions and the embedding backend is reachable; otherwise
it lists the extractions for manual coding. Suggestions are never stored
until a reviewer accepts one or creates a theme by hand.`,
	}
	cmd.AddCommand(
		newThemesSuggestCommand(ctx),
		newThemesAcceptCommand(ctx),
		newThemesCreateCommand(ctx),
		newThemesListCommand(ctx),
	)
	return cmd
}

func newThemesSuggestCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID           int64
		field              string
		save, asJSON, noAI bool
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest themes from an extracted field",
		RunE: func(cmd *cobra.Command, args []string) error {
			if field == "" {
				field = ctx.cfg.Themes.DefaultField
			}

			return ctx.withStore(func(s *store.Store) error {
				review, err := s.GetReview(cmd.Context(), reviewID)
				if err != nil {
					return err
				}

				opts := themes.Options{
					UseAI:     review.UseAISuggestions && !noAI,
					Eps:       ctx.cfg.Themes.Eps,
					MinPoints: ctx.cfg.Themes.MinPoints,
					MaxQuotes: ctx.cfg.Themes.MaxQuotes,
				}
				var embedder themes.Embedder
				if opts.UseAI {
					embedder = embed.New(ctx.cfg.Embedding)
				}

				syn := themes.New(cmd.Context(), s, opts, embedder, ctx.logger)
				if missing := syn.Missing(); missing != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "AI suggestions unavailable (%v); listing extractions for manual coding.\n", missing)
				}

				result, err := syn.SuggestThemes(cmd.Context(), reviewID, field)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					if err := writeJSON(out, result); err != nil {
						return err
					}
				} else {
					printSuggestions(out, result)
				}

				if !save {
					return nil
				}
				if result.Mode != themes.ModeAssisted || len(result.Themes) == 0 {
					return errors.New("--save needs at least one assisted suggestion")
				}
				snap, err := themes.SaveSnapshot(ctx.cfg.Themes.SnapshotDir, result)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s. Accept a suggestion with: litreview themes accept %s N --created-by NAME\n",
					snap.RunID, snap.RunID)
				return nil
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	f := cmd.Flags()
	f.StringVar(&field, "field", "", "extraction field to analyse (default themes.default_field)")
	f.BoolVar(&save, "save", false, "save the suggestions so one can be accepted later")
	f.BoolVar(&noAI, "no-ai", false, "skip embedding even if the review enables it")
	f.BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printSuggestions(out io.Writer, r themes.Result) {
	if r.Mode == themes.ModeManual {
		fmt.Fprintf(out, "%d extraction(s) with %q for manual coding:\n", len(r.Extractions), r.FieldName)
		for _, e := range r.Extractions {
			fmt.Fprintf(out, "\n%s (%s)\n", e.PaperID, e.ReviewerID)
			for _, text := range e.Data[r.FieldName].Texts() {
				fmt.Fprintf(out, "  - %s\n", text)
			}
		}
		return
	}

	if r.Note != "" {
		fmt.Fprintln(out, r.Note)
		return
	}
	fmt.Fprintf(out, "%d theme(s) from %d findings (%d clustered, %d unclustered):\n",
		len(r.Themes), r.TotalFindings, r.ClusteredFindings, r.UnclusteredFindings)
	for i, t := range r.Themes {
		fmt.Fprintf(out, "\n%d. %s (%d papers, %d findings)\n", i+1, t.SuggestedName, t.PaperCount, t.FindingCount)
		fmt.Fprintf(out, "   Papers: %s\n", strings.Join(t.PaperIDs, ", "))
		for _, q := range t.ExampleQuotes {
			fmt.Fprintf(out, "   - %s\n", q)
		}
	}
}

func newThemesAcceptCommand(ctx *commandContext) *cobra.Command {
	var (
		createdBy string
		parent    int64
	)

	cmd := &cobra.Command{
		Use:   "accept RUN_ID N",
		Short: "Confirm suggestion N of a saved run as a theme",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid suggestion number %q", args[1])
			}
			snap, err := themes.LoadSnapshot(ctx.cfg.Themes.SnapshotDir, args[0])
			if err != nil {
				return err
			}

			return ctx.withStore(func(s *store.Store) error {
				theme, err := themes.Accept(cmd.Context(), s, snap, n-1, createdBy, optionalID(parent))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created theme %d: %s\n", theme.ID, theme.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&createdBy, "created-by", "", "reviewer confirming the theme")
	cmd.Flags().Int64Var(&parent, "parent", 0, "parent theme id")
	_ = cmd.MarkFlagRequired("created-by")
	return cmd
}

func newThemesCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID                     int64
		name, description, createdBy string
		parent                       int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a theme by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			return ctx.withStore(func(s *store.Store) error {
				id, err := s.InsertTheme(cmd.Context(), types.Theme{
					ReviewID:    reviewID,
					Name:        name,
					Description: description,
					ParentID:    optionalID(parent),
					CreatedBy:   createdBy,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created theme %d: %s\n", id, name)
				return nil
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "theme name")
	f.StringVar(&description, "description", "", "theme description")
	f.StringVar(&createdBy, "created-by", "", "reviewer creating the theme")
	f.Int64Var(&parent, "parent", 0, "parent theme id")
	_ = cmd.MarkFlagRequired("created-by")
	return cmd
}

func newThemesListCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewID int64
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a review's theme hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				list, err := s.Themes(cmd.Context(), reviewID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(out, "No themes.")
					return nil
				}
				themes.Walk(themes.Tree(list), func(node *themes.ThemeNode, depth int) {
					fmt.Fprintf(out, "%s[%d] %s (%s)\n",
						strings.Repeat("  ", depth), node.Theme.ID, node.Theme.Name, node.Theme.CreatedBy)
				})
				return nil
			})
		},
	}

	addReviewFlag(cmd, &reviewID)
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
