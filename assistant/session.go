package assistant

import (
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formbuilder/intent"
	"github.com/tbxark/formbuilder/patch"
	"github.com/tbxark/formbuilder/types"
)

// Session is the state of one conversation about one form. It survives
// across turns; the form itself is reloaded from the store every turn.
type Session struct {
	FormID    string              `json:"form_id"`
	SessionID string              `json:"session_id"`
	Form      *types.FormDocument `json:"form,omitempty"`
	History   []*schema.Message   `json:"history"`

	Analysis           *intent.Analysis `json:"analysis,omitempty"`
	SuggestedEdit      string           `json:"suggested_edit,omitempty"`
	SuggestedQuestions []types.Question `json:"suggested_questions,omitempty"`
	Templates          string           `json:"templates,omitempty"`

	NeedsConfirmation    bool              `json:"needs_confirmation"`
	ConfirmationChecked  bool              `json:"confirmation_checked"`
	ConfirmEdit          bool              `json:"confirm_edit"`
	Decision             intent.Decision   `json:"decision,omitempty"`
	AwaitingConfirmation bool              `json:"awaiting_confirmation"`
	FormAlreadyEdited    bool              `json:"form_already_edited"`
	Changes              []patch.Operation `json:"changes,omitempty"`
}

func newSession(formID, sessionID string, history []*schema.Message) *Session {
	return &Session{FormID: formID, SessionID: sessionID, History: history}
}

// takePendingSuggestion returns the suggestion the previous reply asked the
// user to confirm, once.
func (s *Session) takePendingSuggestion() string {
	if !s.AwaitingConfirmation {
		return ""
	}
	s.AwaitingConfirmation = false
	return s.SuggestedEdit
}

// confirmationPending reports whether the reply should ask the user to
// confirm the current suggestion.
func (s *Session) confirmationPending() bool {
	return s.SuggestedEdit != "" && s.NeedsConfirmation && !s.Decision.Resolved()
}

// turn holds what only lives for one call to Turn.
type turn struct {
	session     *Session
	input       string
	answer      string
	formUpdated bool
	errors      []string
	warnings    []string
}

func (t *turn) warn(msg string) {
	t.warnings = append(t.warnings, msg)
}
