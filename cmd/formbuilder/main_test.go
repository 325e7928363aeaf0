package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/formbuilder/generation"
	"github.com/tbxark/formbuilder/intent"
	"github.com/tbxark/formbuilder/testutil"
	"github.com/tbxark/formbuilder/types"
)

const generatedForm = `{
  "form_title": "Book Club Signup",
  "description": "Join the monthly book club.",
  "steps": [
    {
      "step_name": "Contact",
      "step_description": "How to reach you",
      "step_questions": [
        {"question_text": "Email", "question_type": "email", "question_description": "Your email", "question_example": "a@b.com"},
        {"question_text": "Genres", "question_type": "multiple_option", "question_description": "What you like", "question_example": "Fiction / Poetry / History"}
      ]
    }
  ]
}`

type harness struct {
	t    *testing.T
	app  *app
	conf string
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Setenv("FORMBUILDER_DATA_DIR", "")
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	conf := filepath.Join(dir, "config.json")
	body := `{"api_key":"test","data_dir":` + quote(filepath.Join(dir, "data")) + `}`
	require.NoError(t, os.WriteFile(conf, []byte(body), 0o600))
	fake := testutil.NewChatModel().
		OnPrompt("concise form description", testutil.Text("A signup form for the book club.")).
		OnPrompt("Create steps to structure", testutil.Text("Step 1: Contact")).
		OnTool("submit_questions", testutil.Args(generation.QuestionList{Questions: []types.Question{
			{QuestionText: "Email", QuestionType: types.QuestionEmail, QuestionDescription: "Contact", QuestionExample: "a@b.com"},
		}})).
		OnTool("evaluate_generated_output", testutil.Args(map[string]string{"grade": "acceptable", "feedback": "ok"})).
		OnPrompt("Combine the generated description", testutil.Text(generatedForm)).
		OnTool("analyze_input", testutil.Args(intent.Analysis{Intent: intent.Unclear, Reason: "greeting"})).
		OnPrompt("adjust or improve their form", testutil.Text("Hello! How can I help with your form?"))
	return &harness{t: t, app: &app{model: fake}, conf: conf, dir: dir}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	root := newRootCmdWith(h.app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", h.conf, "--env", filepath.Join(h.dir, "none.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) generate() string {
	out, err := h.run("", "generate", "a signup form for my book club")
	require.NoError(h.t, err)
	id := regexp.MustCompile(`form_\d{8}_[0-9a-f]{8}`).FindString(out)
	require.NotEmpty(h.t, id, out)
	return id
}

func TestGenerateListShow(t *testing.T) {
	h := newHarness(t)
	id := h.generate()

	out, err := h.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Book Club Signup")

	out, err = h.run("", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"form_id": "`+id+`"`)

	_, err = h.run("", "show", "form_01012025_deadbeef")
	assert.Error(t, err)
}

func TestEditCommands(t *testing.T) {
	h := newHarness(t)
	id := h.generate()

	questions := filepath.Join(h.dir, "questions.json")
	require.NoError(t, os.WriteFile(questions, []byte(`{"questions":[{"question_text":"Phone","question_type":"short_text","question_description":"Mobile","question_example":"+1 555"}]}`), 0o600))
	out, err := h.run("", "edit-step", id, "1", "--name", "Reach you", "--questions", questions)
	require.NoError(t, err)
	assert.Contains(t, out, "Reach you")
	assert.Contains(t, out, "Phone")
	assert.NotContains(t, out, "Genres")

	out, err = h.run("", "edit-form", id, "--title", "Readers Circle")
	require.NoError(t, err)
	assert.Contains(t, out, `"form_title": "Readers Circle"`)

	_, err = h.run("", "edit-step", id, "3", "--name", "x")
	assert.Error(t, err)
	_, err = h.run("", "edit-step", id, "1")
	assert.Error(t, err)
}

func TestFillAndAnswers(t *testing.T) {
	h := newHarness(t)
	id := h.generate()

	out, err := h.run("not-an-email\nann@example.com\nFiction, Poetry\n", "fill", id)
	require.NoError(t, err)
	assert.Contains(t, out, "invalid answer")
	assert.Contains(t, out, "Saved submission")

	out, err = h.run("\nFiction\n", "fill", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved submission")

	out, err = h.run("", "answers", id)
	require.NoError(t, err)
	assert.Contains(t, out, "ann@example.com")
	assert.Contains(t, out, "Fiction, Poetry")

	_, err = os.Stat(filepath.Join(h.dir, "data", "output", id+".csv"))
	assert.NoError(t, err)
}

func TestChat(t *testing.T) {
	h := newHarness(t)
	id := h.generate()

	out, err := h.run("hello\n/exit\n", "chat", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Assistant: Hello! How can I help with your form?")

	history, err := os.ReadFile(filepath.Join(h.dir, "data", "chat_history", "memory_"+id+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(history), "hello")
}

func TestSuggestNeedsTemplates(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "suggest")
	assert.Error(t, err)
}
