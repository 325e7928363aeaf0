package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formbuilder/patch"
	"github.com/tbxark/formbuilder/structured"
	"github.com/tbxark/formbuilder/types"
)

const DefaultLang = "English"

const editedSystemPrompt = `You are a form assistant. The form has been successfully updated based on the user's request.
Summarize what change was applied. Be brief, helpful, and confirm the update.
Then offer to help further with a follow-up like "Let me know if you'd like to change anything else!"
Reply in %s.`

const confirmSystemPrompt = `You are a form assistant. You proposed an edit to the user's form.
Ask the user politely: "Do you want to apply this change?"
Only include the edit summary and the question.
Reply in %s.`

const conversationSystemPrompt = `You are a helpful form assistant. The user is trying to adjust or improve their form.
Use the context below to write a friendly, helpful and clear response. Be conversational and brief.
Do not claim the form was changed.
Reply in %s.`

const suggestEditSystemPrompt = `You are a form assistant. The user wants to change their form.
Describe the edit you propose in friendly text: which step or question changes and how.
Use the suggested questions if they fit the request.
Do not output JSON and do not repeat the full form.
Reply in %s.`

type generatorOptions struct {
	lang string
}

type GeneratorOption func(*generatorOptions)

// WithLang sets the reply language.
func WithLang(lang string) GeneratorOption {
	return func(o *generatorOptions) {
		o.lang = lang
	}
}

func newGeneratorOptions(opts []GeneratorOption) generatorOptions {
	options := generatorOptions{lang: DefaultLang}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.lang == "" {
		options.lang = DefaultLang
	}
	return options
}

// ChatModelGenerator writes the assistant's reply with one plain completion.
type ChatModelGenerator struct {
	Lang  string
	chain *structured.TextChain[*Request]
}

var _ Generator = (*ChatModelGenerator)(nil)

func NewChatModelGenerator(chatModel model.BaseChatModel, opts ...GeneratorOption) *ChatModelGenerator {
	options := newGeneratorOptions(opts)
	g := &ChatModelGenerator{Lang: options.lang}
	g.chain = structured.NewTextChain[*Request](chatModel, g.buildPrompt)
	return g
}

func (g *ChatModelGenerator) GenerateResponse(ctx context.Context, req *Request) (string, error) {
	reply, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate %s response: %w", req.Case, err)
	}
	return reply, nil
}

// GenerateResponseStream is the streaming form of GenerateResponse.
func (g *ChatModelGenerator) GenerateResponseStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error) {
	return g.chain.Stream(ctx, req)
}

func (g *ChatModelGenerator) buildPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	history := section("# Conversation history:\n", req.History)
	switch req.Case {
	case CaseEdited:
		return structured.Messages(fmt.Sprintf(editedSystemPrompt, g.Lang),
			"# Edit request:\n"+req.UserInput,
			history,
			section("# Applied changes:\n", formatChanges(req.Changes)),
		), nil
	case CaseConfirm:
		return structured.Messages(fmt.Sprintf(confirmSystemPrompt, g.Lang),
			"# Proposed edit:\n"+strings.TrimSpace(req.EditMessage),
			history,
		), nil
	case CaseConversation:
		analysis := "{}"
		if req.Analysis != nil {
			analysis = formatJSON(req.Analysis)
		}
		return structured.Messages(fmt.Sprintf(conversationSystemPrompt, g.Lang),
			"# User input:\n"+req.UserInput,
			history,
			"# Form description:\n"+orNone(req.FormDescription),
			"# Analysis:\n"+analysis,
			"# Suggested questions (if any):\n"+formatSuggestions(req.Suggestions),
			"# Similar template (if available):\n"+orNone(req.Templates),
			"# Previous edit suggestion (if any):\n"+orNone(req.EditMessage),
		), nil
	default:
		return nil, fmt.Errorf("unknown response case %q", req.Case)
	}
}

func formatChanges(ops []patch.Operation) string {
	if len(ops) == 0 {
		return ""
	}
	return patch.FormatOperations(ops)
}

func formatSuggestions(questions []types.Question) string {
	if len(questions) == 0 {
		return "None"
	}
	return types.FormatQuestions(questions)
}

// ChatModelEditSuggester describes a proposed edit in plain language.
type ChatModelEditSuggester struct {
	Lang  string
	chain *structured.TextChain[*SuggestRequest]
}

var _ EditSuggester = (*ChatModelEditSuggester)(nil)

func NewChatModelEditSuggester(chatModel model.BaseChatModel, opts ...GeneratorOption) *ChatModelEditSuggester {
	options := newGeneratorOptions(opts)
	s := &ChatModelEditSuggester{Lang: options.lang}
	s.chain = structured.NewTextChain[*SuggestRequest](chatModel, s.buildPrompt)
	return s
}

func (s *ChatModelEditSuggester) SuggestEdit(ctx context.Context, req *SuggestRequest) (string, error) {
	suggestion, err := s.chain.Invoke(ctx, req)
	if err != nil {
		return "", fmt.Errorf("suggest edit: %w", err)
	}
	return suggestion, nil
}

func (s *ChatModelEditSuggester) buildPrompt(ctx context.Context, req *SuggestRequest) ([]*schema.Message, error) {
	outline := "None"
	if req.Form != nil {
		outline = types.FormatOutline(req.Form.FormContent)
	}
	return structured.Messages(fmt.Sprintf(suggestEditSystemPrompt, s.Lang),
		"# User said:\n"+req.UserInput,
		section("# Conversation history:\n", req.History),
		outline,
		formatSuggestionsOrEmpty(req.SuggestedQuestions),
	), nil
}

func formatSuggestionsOrEmpty(questions []types.Question) string {
	if len(questions) == 0 {
		return ""
	}
	return types.FormatQuestions(questions)
}

func section(heading, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return heading + body
}
