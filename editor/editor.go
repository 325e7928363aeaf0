// Package editor changes form documents, either through a model or through
// explicit JSON Patch operations.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbxark/formbuilder/patch"
	"github.com/tbxark/formbuilder/types"
)

// ErrEditApply means a proposed edit could not be turned into a valid
// document. The original document is untouched when it is returned.
var ErrEditApply = errors.New("failed to apply edit")

type Request struct {
	Form        *types.FormDocument
	Instruction string
	Suggestion  string
	History     string
}

// Result is the edited copy of the document and the operations that lead
// from the original to it.
type Result struct {
	Form    *types.FormDocument
	Changes []patch.Operation
}

type Editor interface {
	Edit(ctx context.Context, req *Request) (*Result, error)
}

// finish validates next, keeps the identity of the original and computes
// the change list.
func finish(original *types.FormDocument, content types.FormContent) (*Result, error) {
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditApply, err)
	}
	next := &types.FormDocument{
		FormID:      original.FormID,
		CreatedAt:   original.CreatedAt,
		FormContent: content,
	}
	changes, err := patch.Diff(original, next)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditApply, err)
	}
	return &Result{Form: next, Changes: changes}, nil
}
