package assistant

import "fmt"

// Node is one state of the per-turn assistant flow.
type Node string

const (
	NodeGetFormContext      Node = "get_form_context"
	NodeInputAnalyzer       Node = "input_analyzer"
	NodeEditSuggester       Node = "edit_suggester"
	NodeQuestionSuggester   Node = "question_suggester"
	NodeConfirmationHandler Node = "confirmation_handler"
	NodeFormEditor          Node = "form_editor"
	NodeLLMResponse         Node = "llm_response"
	NodeEnd                 Node = "end"
)

// Event is what a node handler reports when it finishes.
type Event string

const (
	EventDone              Event = "done"
	EventIntentEdit        Event = "intent_edit"
	EventIntentOther       Event = "intent_other"
	EventNeedsConfirmation Event = "needs_confirmation"
	EventSkipConfirmation  Event = "skip_confirmation"
	EventConfirmed         Event = "confirmed"
	EventNotConfirmed      Event = "not_confirmed"
)

type edge struct {
	from  Node
	event Event
}

var transitions = map[edge]Node{
	{NodeGetFormContext, EventDone}:              NodeInputAnalyzer,
	{NodeInputAnalyzer, EventIntentEdit}:         NodeEditSuggester,
	{NodeInputAnalyzer, EventIntentOther}:        NodeQuestionSuggester,
	{NodeEditSuggester, EventNeedsConfirmation}:  NodeConfirmationHandler,
	{NodeEditSuggester, EventSkipConfirmation}:   NodeFormEditor,
	{NodeQuestionSuggester, EventDone}:           NodeLLMResponse,
	{NodeConfirmationHandler, EventConfirmed}:    NodeFormEditor,
	{NodeConfirmationHandler, EventNotConfirmed}: NodeLLMResponse,
	{NodeFormEditor, EventDone}:                  NodeLLMResponse,
	{NodeLLMResponse, EventDone}:                 NodeEnd,
}

// transition returns the node that follows from after event. Unknown pairs
// are programming errors.
func transition(from Node, event Event) (Node, error) {
	next, ok := transitions[edge{from, event}]
	if !ok {
		return "", fmt.Errorf("no transition from %s on %s", from, event)
	}
	return next, nil
}
