package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formbuilder/structured"
	"github.com/tbxark/formbuilder/types"
)

const descriptionSystemPrompt = `You are a form builder. Write a concise form description for the form the user asks for.
Answer with the description text only.`

const stepsSystemPrompt = `You are a form builder. Create steps to structure a form for the user's request.
Write clearly and label each step with a short name and one sentence about what it collects.`

const evaluationSystemPrompt = `You are an evaluator AI. The content below was generated for a form builder task.
Assess whether this content is acceptable for final form generation and call the '%s' tool with a grade and feedback.`

const aggregateSystemPrompt = `You are a form builder AI. Combine the generated description, steps and questions into one structured form.
Every question must use one of these question_type values: %s.
For choice questions put the options in question_example separated by " / ". For slider_rating put the range like "1-5".
Respond ONLY with a valid JSON object matching this schema, without explanation:
%s`

func questionsSystemPrompt(toolName string) string {
	return fmt.Sprintf(`You are a form builder. Generate form questions for the user's request.
For each question include question_text, question_type, question_description and question_example.
question_type must be one of: %s.
Call the '%s' tool with the questions.`, questionTypeList(), toolName)
}

func questionTypeList() string {
	names := make([]string, 0, len(types.QuestionTypes))
	for _, t := range types.QuestionTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func buildDescriptionPrompt(ctx context.Context, prompt string) ([]*schema.Message, error) {
	return structured.Messages(descriptionSystemPrompt, "# User prompt:\n"+prompt), nil
}

func buildStepsPrompt(ctx context.Context, prompt string) ([]*schema.Message, error) {
	return structured.Messages(stepsSystemPrompt, "# User prompt:\n"+prompt), nil
}

func buildQuestionsPrompt(toolName string) structured.PromptBuilder[string] {
	systemPrompt := questionsSystemPrompt(toolName)
	return func(ctx context.Context, prompt string) ([]*schema.Message, error) {
		return structured.Messages(systemPrompt, "# User prompt:\n"+prompt), nil
	}
}

func buildEvaluationPrompt(toolName string) structured.PromptBuilder[*evaluationInput] {
	systemPrompt := fmt.Sprintf(evaluationSystemPrompt, toolName)
	return func(ctx context.Context, in *evaluationInput) ([]*schema.Message, error) {
		return structured.Messages(systemPrompt,
			"# Component:\n"+in.Component,
			"# User prompt:\n"+in.Prompt,
			"# Generated content:\n"+in.Content,
		), nil
	}
}

func buildAggregatePrompt(ctx context.Context, in *aggregateInput) ([]*schema.Message, error) {
	formSchema, err := types.FormContentSchema()
	if err != nil {
		return nil, err
	}
	return structured.Messages(fmt.Sprintf(aggregateSystemPrompt, questionTypeList(), formSchema),
		"# User prompt:\n"+in.Prompt,
		"# Form description:\n"+in.Description,
		"# Steps (raw):\n"+in.Steps,
		"# Questions (raw):\n"+in.Questions,
	), nil
}
