package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/formbuilder/testutil"
	"github.com/tbxark/formbuilder/types"
)

const finalFormJSON = "```json\n" + `{
  "form_title": "Workshop Registration",
  "description": "Sign up for the Go workshop.",
  "steps": [
    {
      "step_name": "About you",
      "step_description": "Contact details",
      "step_questions": [
        {"question_text": "Email", "question_type": "email", "question_description": "Where we reach you", "question_example": "a@b.com"},
        {"question_text": "Level", "question_type": "single_option", "question_description": "Your Go level", "question_example": "Beginner / Intermediate / Expert"}
      ]
    }
  ]
}` + "\n```"

type memWriter struct {
	mu   sync.Mutex
	docs []*types.FormDocument
}

func (w *memWriter) Write(ctx context.Context, doc *types.FormDocument) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs = append(w.docs, doc)
	return nil
}

func scriptedModel(final string, grade Grade) *testutil.ChatModel {
	return testutil.NewChatModel().
		OnPrompt("concise form description", testutil.Text("A registration form for the Go workshop.")).
		OnPrompt("Create steps to structure", testutil.Text("Step 1: About you")).
		OnTool(questionsToolName, testutil.Args(QuestionList{Questions: []types.Question{
			{QuestionText: "Email", QuestionType: types.QuestionEmail, QuestionDescription: "Contact", QuestionExample: "a@b.com"},
		}})).
		OnTool(evaluationToolName, testutil.Args(evaluation{Grade: grade, Feedback: "looks fine"})).
		OnPrompt("Combine the generated description", testutil.Text(final))
}

func TestPipelineGenerate(t *testing.T) {
	ctx := context.Background()
	fake := scriptedModel(finalFormJSON, GradeAcceptable)
	writer := &memWriter{}
	var mu sync.Mutex
	var hooked []Verdict
	now := time.Date(2025, 6, 2, 10, 15, 0, 0, time.Local)

	p, err := NewPipeline(ctx, fake,
		WithWriter(writer),
		WithClock(func() time.Time { return now }),
		WithVerdictHook(func(ctx context.Context, v Verdict) {
			mu.Lock()
			hooked = append(hooked, v)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	doc, result, err := p.Generate(ctx, "registration form for a Go workshop")
	require.NoError(t, err)
	assert.Equal(t, "Workshop Registration", doc.FormContent.FormTitle)
	assert.Equal(t, "02_06_2025: 10:15", doc.CreatedAt)
	assert.Regexp(t, `^form_02062025_[0-9a-f]{8}$`, doc.FormID)
	require.Len(t, doc.FormContent.Steps, 1)
	assert.Equal(t, types.QuestionSingleOption, doc.FormContent.Steps[0].StepQuestions[1].QuestionType)

	require.Len(t, result.Evaluations, 3)
	assert.Equal(t, ComponentDescription, result.Evaluations[0].Component)
	assert.Equal(t, ComponentSteps, result.Evaluations[1].Component)
	assert.Equal(t, ComponentQuestions, result.Evaluations[2].Component)
	assert.Len(t, hooked, 3)

	require.Len(t, writer.docs, 1)
	assert.Equal(t, doc.FormID, writer.docs[0].FormID)

	aggregate := fake.CallsContaining("Combine the generated description")
	require.Len(t, aggregate, 1)
	assert.Contains(t, aggregate[0].User, "A registration form for the Go workshop.")
	assert.Contains(t, aggregate[0].User, "Step 1: About you")
	assert.Contains(t, aggregate[0].User, `"question_type": "email"`)
	assert.NotContains(t, aggregate[0].User, "looks fine")

	evals := fake.CallsTo(evaluationToolName)
	require.Len(t, evals, 3)
	for _, call := range evals {
		assert.Contains(t, call.User, "registration form for a Go workshop")
	}
}

func TestPipelineUnacceptableStillAggregates(t *testing.T) {
	ctx := context.Background()
	p, err := NewPipeline(ctx, scriptedModel(finalFormJSON, GradeUnacceptable))
	require.NoError(t, err)

	result, err := p.Run(ctx, "workshop form")
	require.NoError(t, err)
	for _, v := range result.Evaluations {
		assert.False(t, v.Acceptable())
	}
	assert.Equal(t, "Workshop Registration", result.Content.FormTitle)
}

func TestPipelineInvalidJSON(t *testing.T) {
	ctx := context.Background()
	writer := &memWriter{}
	p, err := NewPipeline(ctx, scriptedModel("Sure! Here is your form: title Workshop", GradeAcceptable), WithWriter(writer))
	require.NoError(t, err)

	_, _, err = p.Generate(ctx, "workshop form")
	assert.ErrorIs(t, err, ErrGenerationFailure)
	assert.Empty(t, writer.docs)
}

func TestPipelineRejectsUnknownQuestionType(t *testing.T) {
	ctx := context.Background()
	final := `{"form_title":"T","description":"D","steps":[{"step_name":"S","step_description":"","step_questions":[{"question_text":"Q","question_type":"text_area_short","question_description":"","question_example":""}]}]}`
	p, err := NewPipeline(ctx, scriptedModel(final, GradeAcceptable))
	require.NoError(t, err)

	_, err = p.Run(ctx, "workshop form")
	assert.ErrorIs(t, err, ErrGenerationFailure)
	assert.ErrorIs(t, err, types.ErrUnsupportedQuestionType)
}

func TestPipelineRejectsEmptySteps(t *testing.T) {
	ctx := context.Background()
	p, err := NewPipeline(ctx, scriptedModel(`{"form_title":"T","description":"D","steps":[]}`, GradeAcceptable))
	require.NoError(t, err)

	_, err = p.Run(ctx, "workshop form")
	assert.ErrorIs(t, err, ErrGenerationFailure)
}

func TestPipelineServiceError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("rate limited")
	fake := testutil.NewChatModel().
		OnPrompt("concise form description", testutil.Text("desc")).
		OnPrompt("Create steps to structure", testutil.Fail(boom)).
		OnTool(questionsToolName, testutil.Args(QuestionList{})).
		OnTool(evaluationToolName, testutil.Args(evaluation{Grade: GradeAcceptable})).
		OnPrompt("Combine the generated description", testutil.Text(finalFormJSON))
	p, err := NewPipeline(ctx, fake)
	require.NoError(t, err)

	_, err = p.Run(ctx, "workshop form")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGenerationFailure)
	assert.ErrorContains(t, err, "rate limited")
	assert.Empty(t, fake.CallsContaining("Combine the generated description"))
}

func TestPipelineEmptyPrompt(t *testing.T) {
	ctx := context.Background()
	fake := scriptedModel(finalFormJSON, GradeAcceptable)
	p, err := NewPipeline(ctx, fake)
	require.NoError(t, err)

	_, err = p.Run(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, fake.Calls())
}

func TestQuestionGeneratorDropsUnsupportedTypes(t *testing.T) {
	fake := testutil.NewChatModel().OnTool(questionsToolName, testutil.Args(QuestionList{Questions: []types.Question{
		{QuestionText: "Name", QuestionType: types.QuestionShortText},
		{QuestionText: "Bio", QuestionType: "text_area_short"},
	}}))
	g, err := NewQuestionGenerator(fake)
	require.NoError(t, err)

	questions, err := g.GenerateQuestions(context.Background(), "a profile form")
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Name", questions[0].QuestionText)
}
