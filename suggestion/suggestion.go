// Package suggestion proposes example requests a user could type to create
// a form, seeded from a random row of the template corpus.
package suggestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formbuilder/retrieval"
	"github.com/tbxark/formbuilder/structured"
)

const (
	DefaultCount = 4
	toolName     = "submit_prompts"
)

var ErrEmptyCorpus = errors.New("template corpus is empty")

// PromptList is the structured reply of the model.
type PromptList struct {
	UserPrompts []string `json:"user_prompts" jsonschema:"required,description=Natural requests a user could type to get this form built"`
}

type request struct {
	Template retrieval.Template
	Count    int
}

type Option func(*Generator)

// WithPicker replaces the random row selection. pick receives the corpus
// size and returns an index.
func WithPicker(pick func(n int) int) Option {
	return func(g *Generator) {
		g.pick = pick
	}
}

type Generator struct {
	templates []retrieval.Template
	chain     *structured.Chain[request, PromptList]
	pick      func(n int) int
}

func NewGenerator(chatModel model.ToolCallingChatModel, templates []retrieval.Template, opts ...Option) (*Generator, error) {
	chain, err := structured.NewChain[request, PromptList](chatModel, buildPrompt, toolName, "Submit the generated user prompts")
	if err != nil {
		return nil, err
	}
	g := &Generator{
		templates: templates,
		chain:     chain,
		pick:      rand.Intn,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Suggest returns up to n prompts. n <= 0 means DefaultCount.
func (g *Generator) Suggest(ctx context.Context, n int) ([]string, error) {
	if len(g.templates) == 0 {
		return nil, ErrEmptyCorpus
	}
	if n <= 0 {
		n = DefaultCount
	}
	tpl := g.templates[g.pick(len(g.templates))]
	slog.Debug("Suggesting prompts", "template", tpl.TemplateName, "count", n)

	out, err := g.chain.Invoke(ctx, request{Template: tpl, Count: n})
	if err != nil {
		return nil, fmt.Errorf("suggest prompts: %w", err)
	}
	prompts := make([]string, 0, len(out.UserPrompts))
	for _, p := range out.UserPrompts {
		if p = strings.TrimSpace(p); p != "" {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) > n {
		prompts = prompts[:n]
	}
	slog.Info("Prompts generated", "count", len(prompts))
	return prompts, nil
}

func buildPrompt(ctx context.Context, in request) ([]*schema.Message, error) {
	system := `You are an assistant that generates natural, varied user prompts to help create a form in a no-code form builder.

The Type and Name of the form are provided for your understanding only and must not appear explicitly in the generated prompts.

Make sure the prompts:
- use a variety of sentence structures and verbs ("I need...", "Please build...", "Could you create...", "Design a form that...")
- are realistic requests a human would type into an AI assistant
- focus on the purpose and usage of the form`

	form := fmt.Sprintf("# Form\n- Type: %s\n- Name: %s\n- Context: %s",
		in.Template.TypeOfForm, in.Template.TemplateName, strings.TrimSpace(in.Template.Context))
	task := "# Task\nGenerate " + strconv.Itoa(in.Count) + " distinct user prompts that express the intent to create such a form."
	return structured.Messages(system, form, task), nil
}
