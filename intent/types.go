package intent

import (
	"context"
	"errors"
)

// ErrClassification marks a classifier answer that could not be used.
// Callers recover from it with Unclear or Unknown.
var ErrClassification = errors.New("classification failed")

type Intent string

const (
	Edit             Intent = "edit"
	SuggestQuestions Intent = "suggest_questions"
	Unclear          Intent = "unclear"
)

func (i Intent) Valid() bool {
	return i == Edit || i == SuggestQuestions || i == Unclear
}

// Analysis is the classified purpose of one chat message.
type Analysis struct {
	Intent Intent `json:"intent" jsonschema:"required,enum=edit,enum=suggest_questions,enum=unclear,description=User's main intent: edit for changes to the form, suggest_questions for question ideas, unclear if ambiguous"`
	Reason string `json:"reason" jsonschema:"required,description=Why the input was interpreted as that intent"`
}

// FallbackAnalysis is used whenever classification fails.
func FallbackAnalysis() *Analysis {
	return &Analysis{Intent: Unclear, Reason: "Failed to parse intent"}
}

type Request struct {
	UserInput         string
	History           string
	FormOutline       string
	PendingSuggestion string
}

type Recognizer interface {
	Recognize(ctx context.Context, req *Request) (*Analysis, error)
}

// Decision is the user's answer to a proposed edit.
type Decision string

const (
	Yes     Decision = "yes"
	No      Decision = "no"
	Unknown Decision = "unknown"
)

func (d Decision) Resolved() bool {
	return d == Yes || d == No
}

type ConfirmRequest struct {
	Suggestion string
	UserInput  string
	History    string
}

type Confirmer interface {
	Confirm(ctx context.Context, req *ConfirmRequest) (Decision, error)
}
