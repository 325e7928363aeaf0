package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/tbxark/formbuilder/answers"
	"github.com/tbxark/formbuilder/editor"
	"github.com/tbxark/formbuilder/types"
)

func newFillCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fill FORM_ID",
		Short: "Answer a saved form and append the submission to its CSV file",
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
			out := cmd.OutOrStdout()
			values, err := askAnswers(bufio.NewScanner(cmd.InOrStdin()), out, doc.FormContent)
			if err != nil {
				return err
			}
			rows := answers.Collect(doc, values, time.Now())
			if len(rows) == 0 {
				fmt.Fprintln(out, "Nothing answered, nothing saved.")
				return nil
			}
			csvStore, err := a.answerStore()
			if err != nil {
				return err
			}
			if err = csvStore.Save(doc.FormID, rows); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved submission %s to %s\n", rows[0].SubmitID, csvStore.Path(doc.FormID))
			return nil
		},
	}
}

// askAnswers walks the form question by question. Empty lines skip a
// question; invalid answers are asked again.
func askAnswers(scanner *bufio.Scanner, out io.Writer, form types.FormContent) (map[answers.Key]any, error) {
	values := make(map[answers.Key]any)
	fmt.Fprintf(out, "%s\n%s\n", form.FormTitle, form.Description)
	for i, step := range form.Steps {
		fmt.Fprintf(out, "\n## %s\n", step.StepName)
		for j, q := range step.StepQuestions {
			for {
				fmt.Fprintf(out, "%s (%s)", q.QuestionText, q.QuestionType)
				if q.QuestionExample != "" {
					fmt.Fprintf(out, " [%s]", q.QuestionExample)
				}
				fmt.Fprint(out, ": ")
				if !scanner.Scan() {
					if err := scanner.Err(); err != nil {
						return nil, err
					}
					return values, nil
				}
				value := strings.TrimSpace(scanner.Text())
				if value == "" {
					break
				}
				if err := answers.ValidateAnswer(q, value); err != nil {
					fmt.Fprintf(out, "  %v\n", err)
					continue
				}
				key := answers.Key{Step: i, Question: j}
				if q.QuestionType.IsMultiValue() {
					values[key] = splitList(value)
				} else {
					values[key] = value
				}
				break
			}
		}
	}
	return values, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newAnswersCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "answers FORM_ID",
		Short: "Show the submissions of a form, one row per submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvStore, err := a.answerStore()
			if err != nil {
				return err
			}
			rows, err := csvStore.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No submissions yet.")
				return nil
			}
			if raw {
				records := make([][]string, 0, len(rows))
				for _, r := range rows {
					records = append(records, []string{r.SubmitID, r.StepName, r.Question, r.Answer})
				}
				return renderTable(out, []string{"Submit ID", "Step", "Question", "Answer"}, records)
			}
			table := answers.Pivot(rows)
			return renderTable(out, table.Header, table.Rows)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print one row per answer")
	return cmd
}

func newEditStepCmd(a *app) *cobra.Command {
	var (
		name          string
		description   string
		questionsFile string
	)
	cmd := &cobra.Command{
		Use:   "edit-step FORM_ID STEP",
		Short: "Rename a step or replace its questions (STEP starts at 1)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := strconv.Atoi(args[1])
			if err != nil || step < 1 {
				return fmt.Errorf("invalid step number %q", args[1])
			}
			if name == "" && description == "" && questionsFile == "" {
				return errors.New("nothing to change, use --name, --description or --questions")
			}
			forms, err := a.formStore(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := forms.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			index := step - 1
			if questionsFile != "" {
				questions, qErr := readQuestions(questionsFile)
				if qErr != nil {
					return qErr
				}
				res, qErr := editor.ReplaceStepQuestions(doc, index, questions)
				if qErr != nil {
					return qErr
				}
				doc = res.Form
			}
			if name != "" || description != "" {
				if index >= len(doc.FormContent.Steps) {
					return fmt.Errorf("%w: step %d does not exist", editor.ErrEditApply, step)
				}
				current := doc.FormContent.Steps[index]
				if name == "" {
					name = current.StepName
				}
				if description == "" {
					description = current.StepDescription
				}
				res, sErr := editor.UpdateStep(doc, index, name, description)
				if sErr != nil {
					return sErr
				}
				doc = res.Form
			}
			if err = forms.Write(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), types.FormatOutline(doc.FormContent))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new step name")
	cmd.Flags().StringVar(&description, "description", "", "new step description")
	cmd.Flags().StringVar(&questionsFile, "questions", "", "JSON file with the new question list")
	return cmd
}

func newEditFormCmd(a *app) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit-form FORM_ID",
		Short: "Change the title or description of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" && description == "" {
				return errors.New("nothing to change, use --title or --description")
			}
			forms, err := a.formStore(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := forms.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if title != "" {
				res, tErr := editor.SetTitle(doc, title)
				if tErr != nil {
					return tErr
				}
				doc = res.Form
			}
			if description != "" {
				res, dErr := editor.SetDescription(doc, description)
				if dErr != nil {
					return dErr
				}
				doc = res.Form
			}
			if err = forms.Write(cmd.Context(), doc); err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new form title")
	cmd.Flags().StringVar(&description, "description", "", "new form description")
	return cmd
}

// readQuestions accepts either a bare list or {"questions": [...]}.
func readQuestions(path string) ([]types.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	var list []types.Question
	if err = sonic.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Questions []types.Question `json:"questions"`
	}
	if err = sonic.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	return wrapped.Questions, nil
}
