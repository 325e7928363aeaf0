// Package testutil holds a scripted chat model for offline tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var ErrNoReply = errors.New("no scripted reply")

// Reply is one scripted model answer. Arguments is used when the caller
// forced a tool call, Content otherwise.
type Reply struct {
	Content   string
	Arguments string
	Err       error
}

func Text(content string) Reply {
	return Reply{Content: content}
}

// Args marshals v as the arguments of the forced tool call.
func Args(v any) Reply {
	data, err := sonic.MarshalString(v)
	if err != nil {
		return Reply{Err: err}
	}
	return Reply{Arguments: data}
}

func Fail(err error) Reply {
	return Reply{Err: err}
}

// Call records one Generate or Stream invocation.
type Call struct {
	Tool     string
	System   string
	User     string
	Messages []*schema.Message
}

type rule struct {
	tool     string
	contains string
	replies  []Reply
	used     int
}

func (r *rule) next() Reply {
	idx := r.used
	if idx >= len(r.replies) {
		idx = len(r.replies) - 1
	}
	r.used++
	return r.replies[idx]
}

// ChatModel is a goroutine-safe fake model.ToolCallingChatModel. Replies are
// routed by forced tool name first, then by a substring of the prompt. The
// replies of a rule are consumed in order and the last one repeats.
type ChatModel struct {
	mu    sync.Mutex
	rules []*rule
	calls []Call
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

func NewChatModel() *ChatModel {
	return &ChatModel{}
}

// OnTool scripts replies for calls that force the named tool.
func (m *ChatModel) OnTool(name string, replies ...Reply) *ChatModel {
	if len(replies) == 0 {
		return m
	}
	m.mu.Lock()
	m.rules = append(m.rules, &rule{tool: name, replies: replies})
	m.mu.Unlock()
	return m
}

// OnPrompt scripts replies for plain calls whose prompt contains substr.
func (m *ChatModel) OnPrompt(substr string, replies ...Reply) *ChatModel {
	if len(replies) == 0 {
		return m
	}
	m.mu.Lock()
	m.rules = append(m.rules, &rule{contains: substr, replies: replies})
	m.mu.Unlock()
	return m
}

// Calls returns a copy of the recorded invocations.
func (m *ChatModel) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsTo returns the recorded calls that forced the given tool.
func (m *ChatModel) CallsTo(tool string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Tool == tool {
			out = append(out, c)
		}
	}
	return out
}

// CallsContaining returns the recorded calls whose prompt contains substr.
func (m *ChatModel) CallsContaining(substr string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if strings.Contains(c.System, substr) || strings.Contains(c.User, substr) {
			out = append(out, c)
		}
	}
	return out
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := model.GetCommonOptions(&model.Options{}, opts...)
	call := Call{Messages: input}
	if len(options.Tools) == 1 {
		call.Tool = options.Tools[0].Name
	}
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			call.System += msg.Content
		case schema.User:
			call.User += msg.Content
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	r := m.match(call)
	var reply Reply
	if r != nil {
		reply = r.next()
	}
	m.mu.Unlock()

	if r == nil {
		return nil, fmt.Errorf("%w: tool=%q system=%q", ErrNoReply, call.Tool, truncate(call.System, 80))
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	if call.Tool != "" {
		return &schema.Message{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				ID:       fmt.Sprintf("call_%d", len(m.Calls())),
				Function: schema.FunctionCall{Name: call.Tool, Arguments: reply.Arguments},
			}},
		}, nil
	}
	return schema.AssistantMessage(reply.Content, nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func (m *ChatModel) match(call Call) *rule {
	if call.Tool != "" {
		for _, r := range m.rules {
			if r.tool == call.Tool {
				return r
			}
		}
	}
	for _, r := range m.rules {
		if r.tool != "" || r.contains == "" {
			continue
		}
		if strings.Contains(call.System, r.contains) || strings.Contains(call.User, r.contains) {
			return r
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
