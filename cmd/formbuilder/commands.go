package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tbxark/formbuilder/generation"
	"github.com/tbxark/formbuilder/store"
	"github.com/tbxark/formbuilder/suggestion"
	"github.com/tbxark/formbuilder/types"
)

const defaultConfigPath = "config.json"

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{})
}

func newRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "formbuilder",
		Short:        "Generate forms from a prompt and refine them in conversation",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "path to a JSON or YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env", "", "path to a .env file (default .env)")

	root.AddCommand(
		newGenerateCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newChatCmd(a),
		newFillCmd(a),
		newAnswersCmd(a),
		newSuggestCmd(a),
		newEditStepCmd(a),
		newEditFormCmd(a),
	)
	return root
}

func newGenerateCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "generate PROMPT",
		Short: "Generate and save a new form from a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			forms, err := a.formStore(ctx)
			if err != nil {
				return err
			}
			cm, err := a.chatModel(ctx)
			if err != nil {
				return err
			}
			pipeline, err := generation.NewPipeline(ctx, cm,
				generation.WithWriter(forms),
				generation.WithVerdictHook(func(ctx context.Context, v generation.Verdict) {
					slog.Info("Evaluation", "component", v.Component, "grade", v.Grade, "feedback", v.Feedback)
				}),
			)
			if err != nil {
				return err
			}
			doc, _, err := pipeline.Generate(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeDocument(out, doc)
			}
			fmt.Fprintf(out, "Saved %s\n\n%s", doc.FormID, types.FormatOutline(doc.FormContent))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the saved document as JSON")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved forms, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := a.formStore(cmd.Context())
			if err != nil {
				return err
			}
			items, err := forms.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No forms found.")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{item.FormID, item.Title, item.CreatedAt})
			}
			return renderTable(out, []string{"Form ID", "Title", "Created At"}, rows)
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var outline bool
	cmd := &cobra.Command{
		Use:   "show FORM_ID",
		Short: "Print a saved form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := a.formStore(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := forms.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outline {
				fmt.Fprint(cmd.OutOrStdout(), types.FormatOutline(doc.FormContent))
				return nil
			}
			return writeDocument(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().BoolVar(&outline, "outline", false, "print a table of steps and questions instead of JSON")
	return cmd
}

func newSuggestCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest example prompts from the template corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := a.templates()
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				return fmt.Errorf("no templates loaded, set templates_csv in the config: %w", suggestion.ErrEmptyCorpus)
			}
			cm, err := a.chatModel(cmd.Context())
			if err != nil {
				return err
			}
			g, err := suggestion.NewGenerator(cm, templates)
			if err != nil {
				return err
			}
			prompts, err := g.Suggest(cmd.Context(), count)
			if err != nil {
				return err
			}
			for i, p := range prompts {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, p)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", suggestion.DefaultCount, "number of prompts")
	return cmd
}

func writeDocument(w io.Writer, doc *types.FormDocument) error {
	data, err := store.Encode(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(toAny(header)...)
	for _, row := range rows {
		if err := table.Append(toAny(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
