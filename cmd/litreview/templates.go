package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/templates"
	"github.com/pdiddy/litreview/pkg/types"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List, show, and validate extraction templates",
		Long: `Extraction templates are YAML files describing the fields a reviewer fills
in for each paper. Built-in templates ship with litreview; files in
templates.dir with the same name take precedence.`,
	}
	cmd.AddCommand(
		newTemplatesListCommand(ctx),
		newTemplatesShowCommand(ctx),
		newTemplatesValidateCommand(),
	)
	return cmd
}

func newTemplatesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := ctx.templateLoader()
			names, err := loader.List()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				tmpl, err := loader.Load(name)
				if err != nil {
					ctx.logger.Warn("skipping template", "name", name, "error", err)
					continue
				}
				rows = append(rows, []string{name, tmpl.Name, strconv.Itoa(len(tmpl.Fields))})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Template", "Title", "Fields"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newTemplatesShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a template's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := ctx.templateLoader().Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, tmpl)
			}
			printTemplate(out, tmpl)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newTemplatesValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check template files for errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := validateTemplateFile(path); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d template(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateTemplateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tmpl, err := templates.Parse(data)
	if err != nil {
		return err
	}
	return templates.Validate(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), tmpl)
}

func printTemplate(out io.Writer, tmpl types.Template) {
	fmt.Fprintln(out, tmpl.Name)
	if tmpl.Description != "" {
		fmt.Fprintln(out, tmpl.Description)
	}

	fields := make([]string, 0, len(tmpl.Fields))
	for name := range tmpl.Fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	rows := make([][]string, 0, len(fields))
	for _, name := range fields {
		f := tmpl.Fields[name]
		required := ""
		if f.Required {
			required = "yes"
		}
		rows = append(rows, []string{name, string(f.Type), required, constraints(f), f.Prompt})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Type", "Required", "Constraints", "Prompt"}, rows, nil))
}

func constraints(f types.TemplateField) string {
	var parts []string
	if f.Min != nil {
		parts = append(parts, "min "+strconv.FormatFloat(*f.Min, 'g', -1, 64))
	}
	if f.Max != nil {
		parts = append(parts, "max "+strconv.FormatFloat(*f.Max, 'g', -1, 64))
	}
	if len(f.Options) > 0 {
		parts = append(parts, strings.Join(f.Options, " | "))
	}
	return strings.Join(parts, "; ")
}
