package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleContent() FormContent {
	return FormContent{
		FormTitle:   "Event Registration",
		Description: "Register for the annual meetup.",
		Steps: []Step{
			{
				StepName:        "Contact",
				StepDescription: "Who you are",
				StepQuestions: []Question{
					{QuestionText: "Your email", QuestionType: QuestionEmail, QuestionDescription: "We send the ticket here", QuestionExample: "jane@example.com"},
					{QuestionText: "Track", QuestionType: QuestionSingleOption, QuestionDescription: "Pick one", QuestionExample: "Backend, Frontend; Data"},
				},
			},
		},
	}
}

func TestParseExampleList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"mixed delimiters", "A, B; C/D\nE", []string{"A", "B", "C", "D", "E"}},
		{"escaped newline", `Yes\nNo`, []string{"Yes", "No"}},
		{"backslash", `Red\Blue`, []string{"Red", "Blue"}},
		{"repeated delimiters", "A,,;B", []string{"A", "B"}},
		{"empty", "", []string{}},
		{"whitespace only", "   \n\t ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExampleList(tt.in))
		})
	}
}

func TestParseSliderRange(t *testing.T) {
	tests := []struct {
		in     string
		lo, hi int
		ok     bool
	}{
		{"1-5", 1, 5, true},
		{"3", 3, 12, true},
		{"0 10", 0, 10, true},
		{"2,8", 2, 8, true},
		{"abc", 1, 5, false},
		{"", 1, 5, false},
		{"5-", 1, 5, false},
		{"9-3", 1, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi, ok := ParseSliderRange(tt.in)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNormalizeExample(t *testing.T) {
	q := NormalizeExample(Question{QuestionType: QuestionMultipleOption, QuestionExample: "A, B;C"})
	assert.Equal(t, "A / B / C", q.QuestionExample)

	free := NormalizeExample(Question{QuestionType: QuestionShortText, QuestionExample: "Jane, Doe"})
	assert.Equal(t, "Jane, Doe", free.QuestionExample)
}

func TestQuestionOptions(t *testing.T) {
	content := sampleContent()
	assert.Nil(t, content.Steps[0].StepQuestions[0].Options())
	assert.Equal(t, []string{"Backend", "Frontend", "Data"}, content.Steps[0].StepQuestions[1].Options())
}

func TestParseQuestionType(t *testing.T) {
	got, err := ParseQuestionType("  Slider_Rating ")
	require.NoError(t, err)
	assert.Equal(t, QuestionSliderRating, got)

	_, err = ParseQuestionType("text_area_short")
	assert.ErrorIs(t, err, ErrUnsupportedQuestionType)
}

func TestValidate(t *testing.T) {
	content := sampleContent()
	require.NoError(t, content.Validate())

	content.Steps[0].StepQuestions[1].QuestionType = "text_area_short"
	err := content.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.ErrorIs(t, err, ErrUnsupportedQuestionType)
	assert.Contains(t, err.Error(), "/steps/0/step_questions/1/question_type")

	empty := FormContent{FormTitle: "x"}
	err = empty.Validate()
	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.NotErrorIs(t, err, ErrUnsupportedQuestionType)

	untitled := sampleContent()
	untitled.FormTitle = " "
	assert.ErrorContains(t, untitled.Validate(), "/form_title")
}

func TestValidTypeIsExact(t *testing.T) {
	assert.True(t, QuestionDate.Valid())
	assert.False(t, QuestionType("Date").Valid())
	assert.Len(t, QuestionTypes, 12)
}

func TestCloneIsDeep(t *testing.T) {
	doc := NewDocument(sampleContent(), time.Now())
	cp := doc.Clone()
	cp.FormContent.Steps[0].StepQuestions[0].QuestionText = "changed"
	cp.FormContent.Steps[0].StepName = "changed"
	assert.Equal(t, "Your email", doc.FormContent.Steps[0].StepQuestions[0].QuestionText)
	assert.Equal(t, "Contact", doc.FormContent.Steps[0].StepName)
	assert.Equal(t, 2, doc.FormContent.QuestionCount())
}

func TestNewFormIDUnique(t *testing.T) {
	now := time.Date(2025, 3, 7, 9, 30, 0, 0, time.Local)
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NewFormID(now)
		require.True(t, ValidFormID(id), id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Regexp(t, `^form_07032025_[0-9a-f]{8}$`, NewFormID(now))
}

func TestValidFormIDRejectsTraversal(t *testing.T) {
	assert.False(t, ValidFormID("../form_07032025_deadbeef"))
	assert.False(t, ValidFormID("form_07032025_deadbeef/x"))
	assert.False(t, ValidFormID("form_0703_deadbeef"))
}

func TestCreatedAtRoundTrip(t *testing.T) {
	now := time.Date(2025, 12, 1, 14, 5, 0, 0, time.Local)
	s := FormatCreatedAt(now)
	assert.Equal(t, "01_12_2025: 14:05", s)
	parsed, err := ParseCreatedAt(s)
	require.NoError(t, err)
	assert.True(t, now.Equal(parsed))
}

func TestFormatOutline(t *testing.T) {
	out := FormatOutline(sampleContent())
	assert.Contains(t, out, "Title: Event Registration")
	assert.Contains(t, out, "Your email")
	assert.Contains(t, out, "single_option")

	assert.Contains(t, FormatOutline(FormContent{}), "(no steps)")
}

func TestFormContentSchema(t *testing.T) {
	s, err := FormContentSchema()
	require.NoError(t, err)
	assert.Contains(t, s, "step_questions")
	assert.Contains(t, s, "slider_rating")
}
