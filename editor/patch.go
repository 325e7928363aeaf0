package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/formbuilder/patch"
	"github.com/tbxark/formbuilder/types"
)

// PatchEditor asks the model for JSON Patch operations against the form
// content instead of a whole new document.
type PatchEditor struct {
	generator    patch.Generator[types.FormContent]
	allowedPaths []string
}

var _ Editor = (*PatchEditor)(nil)

func NewPatchEditor(chatModel model.ToolCallingChatModel) (*PatchEditor, error) {
	generator, err := patch.NewToolBasedGenerator[types.FormContent](chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create patch generator: %w", err)
	}
	return &PatchEditor{
		generator:    generator,
		allowedPaths: patch.AllJSONPointerPaths[types.FormContent](),
	}, nil
}

func (e *PatchEditor) Edit(ctx context.Context, req *Request) (*Result, error) {
	if req.Form == nil {
		return nil, fmt.Errorf("%w: no form loaded", ErrEditApply)
	}
	instruction := req.Instruction
	if s := strings.TrimSpace(req.Suggestion); s != "" {
		instruction = "Agreed edit: " + s + "\nUser request: " + req.Instruction
	}
	args, err := e.generator.GeneratePatch(ctx, &patch.Request[types.FormContent]{
		CurrentState: req.Form.FormContent,
		Instruction:  instruction,
		Context:      req.History,
		AllowedPaths: e.allowedPaths,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditApply, err)
	}
	content, err := patch.ApplyRFC6902(req.Form.FormContent, args.Ops)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditApply, err)
	}
	return finish(req.Form, content)
}
