package intent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formbuilder/structured"
)

const (
	analyzeInputToolName        = "analyze_input"
	analyzeInputToolDescription = "Classify the user's message as edit, suggest_questions or unclear, with a reason."

	confirmEditToolName        = "classify_confirmation"
	confirmEditToolDescription = "Classify the user's reply to a proposed form edit as yes, no or unknown."
)

// DefaultAnalyzeSystemPromptTemplate may contain one "%s" for the tool name.
const DefaultAnalyzeSystemPromptTemplate = `You are a form assistant analyzing user input about a form they built.

Choose exactly one intent:
- edit: the user wants to change the form (add, remove, rename or reword steps or questions, change types, options, title or description), or confirms a pending edit suggestion.
- suggest_questions: the user asks for new question ideas or help deciding what to ask.
- unclear: anything else, including small talk and ambiguous requests.

Use the chat history and any pending edit suggestion to resolve short replies.
Call the '%s' tool with the intent and the reason.`

// DefaultConfirmSystemPromptTemplate may contain one "%s" for the tool name.
const DefaultConfirmSystemPromptTemplate = `You are a confirmation agent in a form assistance workflow.
The user was shown an edit suggestion. Classify their response:
- yes: the user confirms the edit or says to proceed.
- no: the user rejects or declines it.
- unknown: the response is unclear or unrelated.
Call the '%s' tool with the decision.`

type recognizerOptions struct {
	systemPromptTemplate string
}

type Option func(*recognizerOptions)

// WithSystemPromptTemplate overrides the system prompt. A "%s" in the
// template is replaced with the tool name.
func WithSystemPromptTemplate(tpl string) Option {
	return func(o *recognizerOptions) {
		o.systemPromptTemplate = tpl
	}
}

func systemPrompt(defaultTemplate, toolName string, opts []Option) string {
	options := recognizerOptions{systemPromptTemplate: defaultTemplate}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return fmt.Sprintf(options.systemPromptTemplate, toolName)
}

type ToolBasedRecognizer struct {
	chain *structured.Chain[*Request, Analysis]
}

func NewToolBasedRecognizer(chatModel model.ToolCallingChatModel, opts ...Option) (*ToolBasedRecognizer, error) {
	prompt := systemPrompt(DefaultAnalyzeSystemPromptTemplate, analyzeInputToolName, opts)
	chain, err := structured.NewChain[*Request, Analysis](
		chatModel,
		func(ctx context.Context, req *Request) ([]*schema.Message, error) {
			return structured.Messages(prompt,
				section("# Chat history:\n", req.History),
				section("# Pending edit suggestion:\n", req.PendingSuggestion),
				section("# Form:\n", req.FormOutline),
				"# Input:\n"+req.UserInput,
			), nil
		},
		analyzeInputToolName,
		analyzeInputToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedRecognizer{chain: chain}, nil
}

func (r *ToolBasedRecognizer) Recognize(ctx context.Context, req *Request) (*Analysis, error) {
	result, err := r.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassification, err)
	}
	if result == nil || !result.Intent.Valid() {
		return nil, fmt.Errorf("%w: unexpected intent returned by %s", ErrClassification, analyzeInputToolName)
	}
	return result, nil
}

type confirmation struct {
	Decision Decision `json:"decision" jsonschema:"required,enum=yes,enum=no,enum=unknown,description=yes to apply the edit, no to reject it, unknown otherwise"`
}

type ToolBasedConfirmer struct {
	chain *structured.Chain[*ConfirmRequest, confirmation]
}

func NewToolBasedConfirmer(chatModel model.ToolCallingChatModel, opts ...Option) (*ToolBasedConfirmer, error) {
	prompt := systemPrompt(DefaultConfirmSystemPromptTemplate, confirmEditToolName, opts)
	chain, err := structured.NewChain[*ConfirmRequest, confirmation](
		chatModel,
		func(ctx context.Context, req *ConfirmRequest) ([]*schema.Message, error) {
			return structured.Messages(prompt,
				"# Edit suggestion:\n"+req.Suggestion,
				"# User response:\n"+req.UserInput,
				section("# Chat history:\n", req.History),
			), nil
		},
		confirmEditToolName,
		confirmEditToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedConfirmer{chain: chain}, nil
}

func (c *ToolBasedConfirmer) Confirm(ctx context.Context, req *ConfirmRequest) (Decision, error) {
	result, err := c.chain.Invoke(ctx, req)
	if errors.Is(err, structured.ErrInvalidOutput) {
		return Unknown, fmt.Errorf("%w: %w", ErrClassification, err)
	}
	if err != nil {
		return Unknown, err
	}
	return ParseDecision(string(result.Decision))
}

func section(heading, body string) string {
	if body == "" {
		return ""
	}
	return heading + body
}
