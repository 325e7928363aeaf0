package patch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formbuilder/structured"
)

const (
	updateToolName        = "update_document"
	updateToolDescription = "Generate RFC6902 JSON Patch operations that carry out the requested change. Only include operations the request asks for."
)

// ToolBasedGenerator asks the model for patch operations through a forced
// tool call and rejects operations outside the allowed paths.
type ToolBasedGenerator[T any] struct {
	chain *structured.Chain[*Request[T], UpdateArgs]
}

func NewToolBasedGenerator[T any](chatModel model.ToolCallingChatModel) (*ToolBasedGenerator[T], error) {
	chain, err := structured.NewChain[*Request[T], UpdateArgs](
		chatModel,
		buildPatchPrompt[T],
		updateToolName,
		updateToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedGenerator[T]{chain: chain}, nil
}

func (g *ToolBasedGenerator[T]) GeneratePatch(ctx context.Context, req *Request[T]) (*UpdateArgs, error) {
	result, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	if result == nil {
		return &UpdateArgs{}, nil
	}
	if err := ValidatePatchOperations(result.Ops, req.AllowedPaths); err != nil {
		return nil, fmt.Errorf("generated patches failed validation: %w", err)
	}
	return result, nil
}

func buildPatchPrompt[T any](ctx context.Context, req *Request[T]) ([]*schema.Message, error) {
	stateJSON, err := json.Marshal(req.CurrentState)
	if err != nil {
		return nil, fmt.Errorf("marshal current state: %w", err)
	}
	systemPrompt := fmt.Sprintf("You are a form editing agent. Call %s with RFC6902 JSON Patch operations that apply the requested change. Rules: change only what the request asks for; use replace for updates, add for new array items or fields, remove for deletions; only use allowed paths; if nothing should change, return empty operations.", updateToolName)

	return structured.Messages(systemPrompt,
		fmt.Sprintf("# Current document JSON:\n%s", string(stateJSON)),
		fmt.Sprintf("# Allowed paths:\n%s", formatAllowedPaths(req.AllowedPaths)),
		section("# Conversation history:\n", req.Context),
		section("# Requested change:\n", req.Instruction),
	), nil
}

func section(heading, body string) string {
	if body == "" {
		return ""
	}
	return heading + body
}
