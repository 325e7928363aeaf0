package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/formbuilder/structured"
	"github.com/tbxark/formbuilder/types"
)

const (
	questionsToolName        = "submit_questions"
	questionsToolDescription = "Submit the generated form questions."
)

// QuestionGenerator turns a free text request into typed questions. It backs
// both the pipeline's questions branch and the assistant's suggestions.
type QuestionGenerator struct {
	chain *structured.Chain[string, QuestionList]
}

func NewQuestionGenerator(chatModel model.ToolCallingChatModel) (*QuestionGenerator, error) {
	chain, err := structured.NewChain[string, QuestionList](
		chatModel,
		buildQuestionsPrompt(questionsToolName),
		questionsToolName,
		questionsToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &QuestionGenerator{chain: chain}, nil
}

// GenerateQuestions returns the questions whose type is supported. Questions
// with any other type are dropped and logged.
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, prompt string) ([]types.Question, error) {
	result, err := g.chain.Invoke(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	questions := make([]types.Question, 0, len(result.Questions))
	for _, q := range result.Questions {
		if !q.QuestionType.Valid() {
			slog.Warn("Dropping generated question", "question", q.QuestionText, "error", types.ErrUnsupportedQuestionType, "type", q.QuestionType)
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}
