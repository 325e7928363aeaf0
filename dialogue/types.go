package dialogue

import (
	"context"

	"github.com/tbxark/formbuilder/intent"
	"github.com/tbxark/formbuilder/patch"
	"github.com/tbxark/formbuilder/types"
)

// Case selects the reply template.
type Case string

const (
	CaseEdited       Case = "edited"
	CaseConfirm      Case = "confirm"
	CaseConversation Case = "conversation"
)

// Request carries everything the reply templates may use. Only the fields
// relevant to Case are rendered.
type Request struct {
	Case            Case
	UserInput       string
	History         string
	FormDescription string
	Analysis        *intent.Analysis
	Suggestions     []types.Question
	Templates       string
	EditMessage     string
	Changes         []patch.Operation
}

type Generator interface {
	GenerateResponse(ctx context.Context, req *Request) (string, error)
}

// SuggestRequest asks for a plain language summary of a proposed edit.
type SuggestRequest struct {
	UserInput          string
	History            string
	Form               *types.FormDocument
	SuggestedQuestions []types.Question
}

type EditSuggester interface {
	SuggestEdit(ctx context.Context, req *SuggestRequest) (string, error)
}
