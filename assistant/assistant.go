// Package assistant runs the conversational form editing flow: one call to
// Turn walks the state machine from get_form_context to llm_response.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formbuilder/dialogue"
	"github.com/tbxark/formbuilder/editor"
	"github.com/tbxark/formbuilder/generation"
	"github.com/tbxark/formbuilder/intent"
	"github.com/tbxark/formbuilder/store"
	"github.com/tbxark/formbuilder/types"
)

const (
	DefaultHistoryWindow     = 6
	DefaultRetrievalTopK     = 3
	DefaultRetrievalMinScore = 0.7
)

// FormStore is the part of the form store the assistant needs.
type FormStore interface {
	store.Reader
	store.Writer
}

// QuestionSuggester proposes questions for a free text request.
type QuestionSuggester interface {
	GenerateQuestions(ctx context.Context, prompt string) ([]types.Question, error)
}

// ConfirmationPolicy decides whether a suggested edit must be confirmed by
// the user before it is applied.
type ConfirmationPolicy func(suggestion string) bool

func AlwaysConfirm(string) bool { return true }

// Components are the collaborators of each node.
type Components struct {
	Recognizer intent.Recognizer
	Confirmer  intent.Confirmer
	Questions  QuestionSuggester
	Suggester  dialogue.EditSuggester
	Editor     editor.Editor
	Responder  dialogue.Generator
}

type options struct {
	policy        ConfirmationPolicy
	historyWindow int
	lang          string
	editor        editor.Editor
	retriever     retriever.Retriever
	topK          int
	minScore      float64
	history       *HistoryStore
	sessions      Cache[*Session]
}

type Option func(*options)

func WithConfirmationPolicy(policy ConfirmationPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithHistoryWindow limits how many past messages the prompts see.
func WithHistoryWindow(n int) Option {
	return func(o *options) {
		o.historyWindow = n
	}
}

// WithLang sets the reply language of the model backed components.
func WithLang(lang string) Option {
	return func(o *options) {
		o.lang = lang
	}
}

// WithEditor replaces the editor built by NewFromChatModel.
func WithEditor(e editor.Editor) Option {
	return func(o *options) {
		o.editor = e
	}
}

// WithRetriever adds similar form templates to conversational replies.
func WithRetriever(r retriever.Retriever, topK int, minScore float64) Option {
	return func(o *options) {
		o.retriever = r
		o.topK = topK
		o.minScore = minScore
	}
}

func WithHistoryStore(h *HistoryStore) Option {
	return func(o *options) {
		o.history = h
	}
}

func WithSessionCache(c Cache[*Session]) Option {
	return func(o *options) {
		o.sessions = c
	}
}

func newOptions(opts []Option) options {
	o := options{
		policy:        AlwaysConfirm,
		historyWindow: DefaultHistoryWindow,
		lang:          dialogue.DefaultLang,
		topK:          DefaultRetrievalTopK,
		minScore:      DefaultRetrievalMinScore,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.policy == nil {
		o.policy = AlwaysConfirm
	}
	if o.history == nil {
		o.history = NewMemoryHistoryStore(nil)
	}
	if o.sessions == nil {
		o.sessions = NewMemoryCache[*Session]()
	}
	return o
}

// Response is the outcome of one turn.
type Response struct {
	Answer      string              `json:"answer"`
	NewHistory  []*schema.Message   `json:"new_history"`
	SessionID   string              `json:"session_id"`
	FormUpdated bool                `json:"form_updated"`
	Intent      intent.Intent       `json:"intent,omitempty"`
	Errors      []string            `json:"errors,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	Form        *types.FormDocument `json:"form,omitempty"`
}

type handler func(ctx context.Context, t *turn) (Event, error)

type Assistant struct {
	forms      FormStore
	components Components
	opts       options
	sessions   Store[*Session]
	handlers   map[Node]handler
	locks      sync.Map
}

func New(forms FormStore, components Components, opts ...Option) (*Assistant, error) {
	if forms == nil {
		return nil, errors.New("form store is required")
	}
	c := components
	if c.Recognizer == nil || c.Confirmer == nil || c.Questions == nil || c.Suggester == nil || c.Editor == nil || c.Responder == nil {
		return nil, errors.New("all assistant components are required")
	}
	o := newOptions(opts)
	if o.editor != nil {
		c.Editor = o.editor
	}
	a := &Assistant{
		forms:      forms,
		components: c,
		opts:       o,
		sessions:   NewStore(o.sessions, "session", SessionKeyFromContext),
	}
	a.handlers = map[Node]handler{
		NodeGetFormContext:      a.getFormContext,
		NodeInputAnalyzer:       a.analyzeInput,
		NodeEditSuggester:       a.suggestEdit,
		NodeQuestionSuggester:   a.suggestQuestions,
		NodeConfirmationHandler: a.handleConfirmation,
		NodeFormEditor:          a.editForm,
		NodeLLMResponse:         a.respond,
	}
	return a, nil
}

// NewFromChatModel builds every component on one chat model. Short yes/no
// replies are confirmed locally before asking the model.
func NewFromChatModel(forms FormStore, chatModel model.ToolCallingChatModel, opts ...Option) (*Assistant, error) {
	o := newOptions(opts)
	recognizer, err := intent.NewToolBasedRecognizer(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create intent recognizer: %w", err)
	}
	confirmer, err := intent.NewToolBasedConfirmer(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create confirmer: %w", err)
	}
	questions, err := generation.NewQuestionGenerator(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create question generator: %w", err)
	}
	var ed editor.Editor = editor.NewDocumentEditor(chatModel)
	if o.editor != nil {
		ed = o.editor
	}
	return New(forms, Components{
		Recognizer: recognizer,
		Confirmer:  intent.NewFailbackConfirmer(intent.NewLocalConfirmer(), confirmer),
		Questions:  questions,
		Suggester:  dialogue.NewChatModelEditSuggester(chatModel, dialogue.WithLang(o.lang)),
		Editor:     ed,
		Responder:  dialogue.NewChatModelGenerator(chatModel, dialogue.WithLang(o.lang)),
	}, opts...)
}

// Turn answers one chat message about formID. A missing form is returned as
// an error wrapping store.ErrNotFound; every other failure becomes an
// apology in the response.
func (a *Assistant) Turn(ctx context.Context, formID, sessionID, message string) (*Response, error) {
	if !types.ValidFormID(formID) {
		return nil, fmt.Errorf("%w: %q", store.ErrNotFound, formID)
	}
	if sessionID == "" {
		sessionID = DefaultSessionID(formID)
	}
	ctx = WithSessionID(WithFormID(ctx, formID), sessionID)
	ctx = callbacks.EnsureRunInfo(ctx, "FormAssistant", "Agent")
	ctx = callbacks.OnStart(ctx, map[string]any{
		"form_id":    formID,
		"session_id": sessionID,
		"input":      message,
	})

	unlock := a.lock(formID + "/" + sessionID)
	defer unlock()

	sess, err := a.loadSession(ctx, formID, sessionID)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}
	t := &turn{session: sess, input: message}
	if err := a.run(ctx, t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			callbacks.OnError(ctx, err)
			return nil, err
		}
		slog.Error("Form assistant failed", "form_id", formID, "error", err)
		t.answer = fmt.Sprintf("I apologize, but I encountered an error: %s. Please try again.", err)
		t.errors = append(t.errors, err.Error())
	}

	newHistory := []*schema.Message{schema.UserMessage(message), schema.AssistantMessage(t.answer, nil)}
	history, err := a.opts.history.Append(ctx, newHistory...)
	if err != nil {
		slog.Error("Failed to save chat history", "form_id", formID, "error", err)
		t.warn("chat history was not saved: " + err.Error())
		history = appendHistory(sess.History, newHistory...)
	}
	sess.History = history
	if err := a.sessions.Set(ctx, sess); err != nil {
		slog.Error("Failed to save session", "session_id", sessionID, "error", err)
		t.warn("session state was not saved: " + err.Error())
	}

	resp := &Response{
		Answer:      t.answer,
		NewHistory:  newHistory,
		SessionID:   sessionID,
		FormUpdated: t.formUpdated,
		Errors:      t.errors,
		Warnings:    t.warnings,
		Form:        sess.Form.Clone(),
	}
	if sess.Analysis != nil {
		resp.Intent = sess.Analysis.Intent
	}
	callbacks.OnEnd(ctx, map[string]any{
		"answer":       resp.Answer,
		"form_updated": resp.FormUpdated,
		"intent":       string(resp.Intent),
	})
	return resp, nil
}

// Reset forgets the session state and the chat history of formID.
func (a *Assistant) Reset(ctx context.Context, formID, sessionID string) error {
	if sessionID == "" {
		sessionID = DefaultSessionID(formID)
	}
	key := formID + "/" + sessionID
	unlock := a.lock(key)
	defer a.locks.Delete(key)
	defer unlock()

	ctx = WithSessionID(WithFormID(ctx, formID), sessionID)
	if err := a.sessions.Del(ctx); err != nil {
		return err
	}
	return a.opts.history.Clear(ctx)
}

func (a *Assistant) lock(key string) func() {
	mu, _ := a.locks.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (a *Assistant) loadSession(ctx context.Context, formID, sessionID string) (*Session, error) {
	sess, ok, err := a.sessions.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if ok && sess != nil {
		return sess, nil
	}
	history, err := a.opts.history.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	slog.Debug("Created session", "form_id", formID, "session_id", sessionID, "history", len(history))
	return newSession(formID, sessionID, history), nil
}

func (a *Assistant) run(ctx context.Context, t *turn) (err error) {
	node := NodeGetFormContext
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", node, r)
		}
	}()
	for node != NodeEnd {
		slog.Debug("Entering node", "node", node)
		event, hErr := a.handlers[node](ctx, t)
		if hErr != nil {
			return fmt.Errorf("%s: %w", node, hErr)
		}
		next, tErr := transition(node, event)
		if tErr != nil {
			return tErr
		}
		slog.Debug("Leaving node", "node", node, "event", event, "next", next)
		node = next
	}
	return nil
}

func (a *Assistant) history(t *turn) string {
	return dialogue.FormatHistory(t.session.History, a.opts.historyWindow)
}

func (a *Assistant) getFormContext(ctx context.Context, t *turn) (Event, error) {
	doc, err := a.forms.Read(ctx, t.session.FormID)
	if err != nil {
		return "", err
	}
	t.session.Form = doc
	return EventDone, nil
}

func (a *Assistant) analyzeInput(ctx context.Context, t *turn) (Event, error) {
	s := t.session
	analysis, err := a.components.Recognizer.Recognize(ctx, &intent.Request{
		UserInput:         t.input,
		History:           a.history(t),
		FormOutline:       types.FormatOutline(s.Form.FormContent),
		PendingSuggestion: s.takePendingSuggestion(),
	})
	if err != nil || analysis == nil || !analysis.Intent.Valid() {
		slog.Error("Intent classification failed", "error", err)
		t.warn("intent classification failed, treating input as unclear")
		analysis = intent.FallbackAnalysis()
	}
	s.Analysis = analysis
	slog.Info("Classified input", "intent", analysis.Intent, "reason", analysis.Reason)
	if analysis.Intent == intent.Edit {
		return EventIntentEdit, nil
	}
	return EventIntentOther, nil
}

func (a *Assistant) suggestEdit(ctx context.Context, t *turn) (Event, error) {
	s := t.session
	suggestion, err := a.components.Suggester.SuggestEdit(ctx, &dialogue.SuggestRequest{
		UserInput:          t.input,
		History:            a.history(t),
		Form:               s.Form,
		SuggestedQuestions: s.SuggestedQuestions,
	})
	if err != nil {
		return "", err
	}
	s.SuggestedEdit = strings.TrimSpace(suggestion)
	s.NeedsConfirmation = a.opts.policy(s.SuggestedEdit)
	s.ConfirmationChecked = false
	s.ConfirmEdit = false
	s.Decision = intent.Unknown
	if s.NeedsConfirmation {
		return EventNeedsConfirmation, nil
	}
	return EventSkipConfirmation, nil
}

func (a *Assistant) suggestQuestions(ctx context.Context, t *turn) (Event, error) {
	questions, err := a.components.Questions.GenerateQuestions(ctx, t.input)
	if err != nil {
		slog.Error("Question suggestion failed", "error", err)
		t.warn("question suggestions are unavailable")
		questions = []types.Question{}
	}
	t.session.SuggestedQuestions = questions
	slog.Debug("Suggested questions", "count", len(questions))
	return EventDone, nil
}

func (a *Assistant) handleConfirmation(ctx context.Context, t *turn) (Event, error) {
	s := t.session
	decision, err := a.components.Confirmer.Confirm(ctx, &intent.ConfirmRequest{
		Suggestion: s.SuggestedEdit,
		UserInput:  t.input,
		History:    a.history(t),
	})
	if err != nil {
		if !errors.Is(err, intent.ErrClassification) {
			return "", err
		}
		slog.Warn("Confirmation classification failed", "error", err)
		decision = intent.Unknown
	}
	s.Decision = decision
	s.ConfirmEdit = decision == intent.Yes
	s.ConfirmationChecked = true
	slog.Info("Confirmation handled", "decision", decision)
	if s.ConfirmEdit {
		return EventConfirmed, nil
	}
	return EventNotConfirmed, nil
}

// editForm never fails the turn: a rejected edit leaves the stored form as
// it was.
func (a *Assistant) editForm(ctx context.Context, t *turn) (Event, error) {
	s := t.session
	result, err := a.components.Editor.Edit(ctx, &editor.Request{
		Form:        s.Form,
		Instruction: t.input,
		Suggestion:  s.SuggestedEdit,
		History:     a.history(t),
	})
	if err != nil {
		slog.Error("Failed to apply changes", "form_id", s.FormID, "error", err)
		t.warn("the edit could not be applied: " + err.Error())
		return EventDone, nil
	}
	if err := a.forms.Write(ctx, result.Form); err != nil {
		slog.Error("Failed to save edited form", "form_id", s.FormID, "error", err)
		t.warn("the edited form could not be saved: " + err.Error())
		return EventDone, nil
	}
	s.Form = result.Form
	s.Changes = result.Changes
	s.FormAlreadyEdited = true
	t.formUpdated = true
	slog.Info("Form updated", "form_id", s.FormID, "changes", len(result.Changes))
	return EventDone, nil
}

func (a *Assistant) respond(ctx context.Context, t *turn) (Event, error) {
	s := t.session
	req := &dialogue.Request{
		UserInput: t.input,
		History:   a.history(t),
	}
	switch {
	case s.FormAlreadyEdited:
		req.Case = dialogue.CaseEdited
		req.Changes = s.Changes
		s.FormAlreadyEdited = false
	case s.confirmationPending():
		req.Case = dialogue.CaseConfirm
		req.EditMessage = s.SuggestedEdit
		s.NeedsConfirmation = false
		s.ConfirmationChecked = false
		s.AwaitingConfirmation = true
	default:
		req.Case = dialogue.CaseConversation
		req.FormDescription = s.Form.FormContent.Description
		req.Analysis = s.Analysis
		req.Suggestions = s.SuggestedQuestions
		req.EditMessage = s.SuggestedEdit
		s.Templates = a.retrieveTemplates(ctx, t.input)
		req.Templates = s.Templates
	}
	slog.Info("Selected response case", "case", req.Case)
	answer, err := a.components.Responder.GenerateResponse(ctx, req)
	if err != nil {
		return "", err
	}
	t.answer = answer
	return EventDone, nil
}

// retrieveTemplates is auxiliary context only; failures are logged.
func (a *Assistant) retrieveTemplates(ctx context.Context, query string) string {
	if a.opts.retriever == nil {
		return ""
	}
	docs, err := a.opts.retriever.Retrieve(ctx, query,
		retriever.WithTopK(a.opts.topK),
		retriever.WithScoreThreshold(a.opts.minScore),
	)
	if err != nil {
		slog.Warn("Template retrieval failed", "error", err)
		return ""
	}
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		name, _ := doc.MetaData["template_name"].(string)
		if name != "" {
			parts = append(parts, "## "+name+"\n"+doc.Content)
		} else {
			parts = append(parts, doc.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
