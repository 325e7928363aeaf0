package types

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// FormatOutline renders the steps and questions of a form as a markdown table.
func FormatOutline(content FormContent) string {
	var buf strings.Builder
	buf.WriteString("# Form outline:\n")
	if content.FormTitle != "" {
		buf.WriteString("Title: " + content.FormTitle + "\n")
	}
	if len(content.Steps) == 0 {
		buf.WriteString("(no steps)\n")
		return buf.String()
	}
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Step", "Step Name", "No", "Question", "Type", "Example")
	for i, step := range content.Steps {
		if len(step.StepQuestions) == 0 {
			_ = table.Append(strconv.Itoa(i+1), step.StepName, "-", "-", "-", "-")
			continue
		}
		for j, q := range step.StepQuestions {
			_ = table.Append(strconv.Itoa(i+1), step.StepName, strconv.Itoa(j+1), q.QuestionText, string(q.QuestionType), oneLine(q.QuestionExample))
		}
	}
	_ = table.Render()
	return buf.String()
}

// FormatQuestions renders a flat question list as a markdown table.
func FormatQuestions(questions []Question) string {
	if len(questions) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Suggested questions:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Question", "Type", "Description", "Example")
	for _, q := range questions {
		_ = table.Append(q.QuestionText, string(q.QuestionType), oneLine(q.QuestionDescription), oneLine(q.QuestionExample))
	}
	_ = table.Render()
	return buf.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
