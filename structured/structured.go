package structured

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// Chain asks the model for one forced tool call and decodes its arguments
// into TOutput. The tool schema is derived from TOutput's jsonschema tags.
type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {

	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}, nil
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	return s.decode(response)
}

func (s *Chain[TInput, TOutput]) decode(msg *schema.Message) (*TOutput, error) {
	if msg == nil || len(msg.ToolCalls) == 0 {
		content := ""
		if msg != nil {
			content = msg.Content
		}
		return nil, fmt.Errorf("%w: no ToolCall found in model response: %s", ErrInvalidOutput, content)
	}
	var result TOutput
	if err := sonic.UnmarshalString(msg.ToolCalls[0].Function.Arguments, &result); err != nil {
		return nil, fmt.Errorf("%w: parse ToolCall arguments failed: %v", ErrInvalidOutput, err)
	}
	return &result, nil
}

// TextChain is the free text counterpart of Chain: one plain completion,
// content returned trimmed.
type TextChain[TInput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.BaseChatModel
}

func NewTextChain[TInput any](chatModel model.BaseChatModel, promptBuilder PromptBuilder[TInput]) *TextChain[TInput] {
	return &TextChain[TInput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
	}
}

func (s *TextChain[TInput]) Invoke(ctx context.Context, input TInput) (string, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return "", fmt.Errorf("build prompt failed: %w", err)
	}
	response, err := s.ChatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("call model failed: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("%w: empty model response", ErrInvalidOutput)
	}
	return strings.TrimSpace(response.Content), nil
}

func (s *TextChain[TInput]) Stream(ctx context.Context, input TInput) (*schema.StreamReader[string], error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}
	stream, err := s.ChatModel.Stream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	return schema.StreamReaderWithConvert(stream, func(message *schema.Message) (string, error) {
		return message.Content, nil
	}), nil
}

// Messages is the common system + user prompt shape.
func Messages(systemPrompt string, sections ...string) []*schema.Message {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return []*schema.Message{
		schema.SystemMessage(strings.TrimSpace(systemPrompt)),
		schema.UserMessage(strings.Join(parts, "\n\n")),
	}
}
