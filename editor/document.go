package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formbuilder/structured"
	"github.com/tbxark/formbuilder/types"
)

const documentEditorSystemPrompt = `You are a form editing agent.
Apply the requested change to the form JSON you are given and keep everything the request does not mention unchanged.
question_type must stay one of: %s.
ONLY return the updated form in valid JSON format (no explanation, no markdown).`

// DocumentEditor asks the model for the entire replacement document.
type DocumentEditor struct {
	chain *structured.TextChain[*Request]
}

var _ Editor = (*DocumentEditor)(nil)

func NewDocumentEditor(chatModel model.BaseChatModel) *DocumentEditor {
	return &DocumentEditor{chain: structured.NewTextChain[*Request](chatModel, buildDocumentPrompt)}
}

// replacement accepts both the full envelope and bare form content.
type replacement struct {
	FormContent *types.FormContent `json:"form_content"`
	FormTitle   *string            `json:"form_title"`
	Description *string            `json:"description"`
	Steps       []types.Step       `json:"steps"`
}

func (r replacement) content() (types.FormContent, bool) {
	if r.FormContent != nil {
		return *r.FormContent, true
	}
	if r.FormTitle == nil && r.Steps == nil {
		return types.FormContent{}, false
	}
	out := types.FormContent{Steps: r.Steps}
	if r.FormTitle != nil {
		out.FormTitle = *r.FormTitle
	}
	if r.Description != nil {
		out.Description = *r.Description
	}
	return out, true
}

func (e *DocumentEditor) Edit(ctx context.Context, req *Request) (*Result, error) {
	if req.Form == nil {
		return nil, fmt.Errorf("%w: no form loaded", ErrEditApply)
	}
	raw, err := e.chain.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	decoded, err := structured.DecodeJSON[replacement](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditApply, err)
	}
	content, ok := decoded.content()
	if !ok {
		return nil, fmt.Errorf("%w: response holds no form content", ErrEditApply)
	}
	return finish(req.Form, content)
}

func buildDocumentPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	formJSON, err := sonic.MarshalIndent(req.Form, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal form: %w", err)
	}
	names := make([]string, 0, len(types.QuestionTypes))
	for _, t := range types.QuestionTypes {
		names = append(names, string(t))
	}
	return structured.Messages(fmt.Sprintf(documentEditorSystemPrompt, strings.Join(names, ", ")),
		"# Current form JSON:\n"+string(formJSON),
		section("# Agreed edit:\n", req.Suggestion),
		"# User request:\n"+req.Instruction,
		section("# Conversation history:\n", req.History),
	), nil
}

func section(heading, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return heading + body
}
