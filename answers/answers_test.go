package answers

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/formbuilder/types"
)

func sampleForm() *types.FormDocument {
	return types.NewDocument(types.FormContent{
		FormTitle:   "Event Feedback",
		Description: "Tell us how it went.",
		Steps: []types.Step{
			{StepName: "About you", StepQuestions: []types.Question{
				{QuestionText: "Email", QuestionType: types.QuestionEmail},
				{QuestionText: "Name", QuestionType: types.QuestionShortText},
			}},
			{StepName: "Event", StepQuestions: []types.Question{
				{QuestionText: "Sessions", QuestionType: types.QuestionMultipleOption, QuestionExample: "Keynote / Workshop / Panel"},
				{QuestionText: "Rating", QuestionType: types.QuestionSliderRating, QuestionExample: "1-5"},
			}},
		},
	}, time.Date(2025, 5, 1, 8, 0, 0, 0, time.Local))
}

func TestCollect(t *testing.T) {
	now := time.Date(2025, 5, 2, 14, 7, 0, 0, time.Local)
	rows := Collect(sampleForm(), map[Key]any{
		{Step: 0, Question: 0}: " ann@example.com ",
		{Step: 0, Question: 1}: "   ",
		{Step: 1, Question: 0}: []string{"Keynote", "Panel"},
		{Step: 1, Question: 1}: 4,
	}, now)

	require.Len(t, rows, 3)
	assert.Regexp(t, `^020525-1407-[0-9a-f]{8}$`, rows[0].SubmitID)
	for _, r := range rows {
		assert.Equal(t, rows[0].SubmitID, r.SubmitID)
		assert.Equal(t, "Event Feedback", r.FormName)
	}
	assert.Equal(t, Row{SubmitID: rows[0].SubmitID, FormName: "Event Feedback", StepName: "About you", Question: "Email", Answer: "ann@example.com"}, rows[0])
	assert.Equal(t, "Keynote, Panel", rows[1].Answer)
	assert.Equal(t, "4", rows[2].Answer)
}

func TestFormatAnswer(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "  hi ", "hi"},
		{"strings", []string{"a", "b"}, "a, b"},
		{"anys", []any{1, "x"}, "1, x"},
		{"time", at, "02/01/2025, 03:04:05"},
		{"number", 3.5, "3.5"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAnswer(tt.in))
		})
	}
}

func TestValidateAnswer(t *testing.T) {
	form := sampleForm().FormContent
	email := form.Steps[0].StepQuestions[0]
	sessions := form.Steps[1].StepQuestions[0]
	rating := form.Steps[1].StepQuestions[1]

	assert.NoError(t, ValidateAnswer(email, "a@b.io"))
	assert.ErrorIs(t, ValidateAnswer(email, "not-an-email"), ErrInvalidAnswer)
	assert.NoError(t, ValidateAnswer(email, ""))

	assert.NoError(t, ValidateAnswer(sessions, "keynote, Panel"))
	assert.ErrorIs(t, ValidateAnswer(sessions, "Keynote, Party"), ErrInvalidAnswer)

	assert.NoError(t, ValidateAnswer(rating, "5"))
	assert.ErrorIs(t, ValidateAnswer(rating, "6"), ErrInvalidAnswer)
	assert.ErrorIs(t, ValidateAnswer(rating, "five"), ErrInvalidAnswer)

	date := types.Question{QuestionType: types.QuestionDate}
	assert.NoError(t, ValidateAnswer(date, "2025-02-28"))
	assert.ErrorIs(t, ValidateAnswer(date, "28/02/2025"), ErrInvalidAnswer)

	clock := types.Question{QuestionType: types.QuestionTime}
	assert.NoError(t, ValidateAnswer(clock, "09:30"))
	assert.ErrorIs(t, ValidateAnswer(clock, "9.30am"), ErrInvalidAnswer)

	single := types.Question{QuestionType: types.QuestionSingleOption, QuestionExample: "Yes, No"}
	assert.NoError(t, ValidateAnswer(single, "no"))
	assert.ErrorIs(t, ValidateAnswer(single, "Yes, No"), ErrInvalidAnswer)
}

func TestCSVStoreMergeKeepsLatest(t *testing.T) {
	s, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)
	first := []Row{
		{SubmitID: "s1", FormName: "F", StepName: "A", Question: "Q1", Answer: "old"},
		{SubmitID: "s1", FormName: "F", StepName: "A", Question: "Q2", Answer: "keep"},
		{SubmitID: "s2", FormName: "F", StepName: "A", Question: "Q1", Answer: "other"},
	}
	require.NoError(t, s.Save("form_01052025_abcdef12", first))
	require.NoError(t, s.Save("form_01052025_abcdef12", []Row{
		{SubmitID: "s1", FormName: "F", StepName: "A", Question: "Q1", Answer: "new"},
	}))

	rows, err := s.Load("form_01052025_abcdef12")
	require.NoError(t, err)
	assert.Equal(t, []Row{first[1], first[2], {SubmitID: "s1", FormName: "F", StepName: "A", Question: "Q1", Answer: "new"}}, rows)

	data, err := os.ReadFile(s.Path("form_01052025_abcdef12"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "submit_id,form_name,step_name,question,answer\n"))
}

func TestCSVStoreQuotesAndMissingFile(t *testing.T) {
	s, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	rows, err := s.Load("missing")
	require.NoError(t, err)
	assert.Empty(t, rows)

	tricky := []Row{{SubmitID: "s1", FormName: "F", StepName: "A", Question: "Q, really?", Answer: "line one\n\"two\""}}
	require.NoError(t, s.Save("My Form/2025", tricky))
	rows, err = s.Load("My Form/2025")
	require.NoError(t, err)
	assert.Equal(t, tricky, rows)
	assert.Equal(t, "My_Form_2025.csv", strings.TrimPrefix(s.Path("My Form/2025"), s.dir+string(os.PathSeparator)))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "form_01052025_abcdef12", SanitizeName("form_01052025_abcdef12"))
	assert.Equal(t, "Caf__menu__2_", SanitizeName("Café menu (2)"))
	assert.Equal(t, "form", SanitizeName(""))
}

func TestPivot(t *testing.T) {
	table := Pivot([]Row{
		{SubmitID: "b", Question: "Name", Answer: "Bo"},
		{SubmitID: "a", Question: "Name", Answer: "Al"},
		{SubmitID: "a", Question: "Email", Answer: "al@x.io"},
		{SubmitID: "a", Question: "Name", Answer: "ignored"},
	})
	assert.Equal(t, []string{"submit_id", "Name", "Email"}, table.Header)
	assert.Equal(t, [][]string{{"a", "Al", "al@x.io"}, {"b", "Bo", ""}}, table.Rows)
}
