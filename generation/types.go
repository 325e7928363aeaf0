package generation

import (
	"context"
	"errors"

	"github.com/tbxark/formbuilder/types"
)

// ErrGenerationFailure means the aggregated output could not be turned into
// a valid form. Nothing is persisted when it is returned.
var (
	ErrGenerationFailure = errors.New("form generation failed")
	ErrEmptyPrompt       = errors.New("empty prompt")
)

type Grade string

const (
	GradeAcceptable   Grade = "acceptable"
	GradeUnacceptable Grade = "unacceptable"
)

const (
	ComponentDescription = "description"
	ComponentSteps       = "steps"
	ComponentQuestions   = "questions"
)

// Verdict is the evaluator's opinion about one generated component.
type Verdict struct {
	Component string `json:"component"`
	Grade     Grade  `json:"grade"`
	Feedback  string `json:"feedback"`
}

func (v Verdict) Acceptable() bool {
	return v.Grade == GradeAcceptable
}

// VerdictHook observes every verdict as soon as it is produced. Hooks of the
// three branches may run concurrently.
type VerdictHook func(ctx context.Context, v Verdict)

// Result is the outcome of one pipeline run.
type Result struct {
	Content     types.FormContent `json:"form_content"`
	Evaluations []Verdict         `json:"evaluations"`
}

// Writer persists a freshly generated document.
type Writer interface {
	Write(ctx context.Context, doc *types.FormDocument) error
}

// QuestionList is the structured output of the questions generator.
type QuestionList struct {
	Questions []types.Question `json:"questions" jsonschema:"required,description=Form questions generated for the prompt"`
}

type evaluation struct {
	Grade    Grade  `json:"grade" jsonschema:"required,enum=acceptable,enum=unacceptable,description=Whether the generated content is acceptable"`
	Feedback string `json:"feedback" jsonschema:"required,description=Suggestions or comments on how to improve the generation"`
}

type evaluationInput struct {
	Prompt    string
	Component string
	Content   string
}

type aggregateInput struct {
	Prompt      string
	Description string
	Steps       string
	Questions   string
}
