package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

// Agent exposes the assistant to an adk.Runner. The form and session are
// taken from the context (WithFormID, WithSessionID); only the last input
// message is used since the assistant keeps its own history.
type Agent struct {
	name        string
	description string
	assistant   *Assistant
}

func NewAgent(name, description string, assistant *Assistant) *Agent {
	return &Agent{
		name:        name,
		description: description,
		assistant:   assistant,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if input == nil || len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{
				Err: errors.New("no messages in input"),
			})
			return
		}
		formID, ok := FormIDFromContext(ctx)
		if !ok || formID == "" {
			gen.Send(&adk.AgentEvent{
				Err: errors.New("no form id in context"),
			})
			return
		}
		sessionID, _ := ctx.Value(sessionIDContext{}).(string)
		resp, err := a.assistant.Turn(ctx, formID, sessionID, input.Messages[len(input.Messages)-1].Content)
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("assistant turn failed: %w", err),
			})
			return
		}
		gen.Send(&adk.AgentEvent{
			AgentName: a.name,
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message:     schema.AssistantMessage(resp.Answer, nil),
					Role:        schema.Assistant,
				},
			},
		})
	}()
	return iter
}
