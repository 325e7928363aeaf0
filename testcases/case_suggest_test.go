package testcases

import (
	"context"
	"testing"

	"github.com/tbxark/formbuilder/retrieval"
	"github.com/tbxark/formbuilder/suggestion"
)

func TestSuggestPrompts(t *testing.T) {
	t.Parallel()
	chatModel := InitChatModel(t)

	g, err := suggestion.NewGenerator(chatModel, []retrieval.Template{{
		TypeOfForm:   "Application",
		TemplateName: "Volunteer Application",
		Context:      "Collect availability, skills and emergency contacts from people who want to volunteer at a food bank.",
	}})
	if err != nil {
		t.Fatalf("create generator: %v", err)
	}
	prompts, err := g.Suggest(context.Background(), 3)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(prompts) == 0 {
		t.Fatal("expected at least one prompt")
	}
	for _, p := range prompts {
		t.Logf("prompt: %s", p)
	}
}
