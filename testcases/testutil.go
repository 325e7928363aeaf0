// Package testcases runs the flows against a real model. The tests are
// skipped unless FORMBUILDER_RUN_LIVE_TESTS=1 and ../config.json holds an
// api key.
package testcases

import (
	"context"
	"os"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/tbxark/formbuilder/config"
	"github.com/tbxark/formbuilder/generation"
	"github.com/tbxark/formbuilder/store"
	"github.com/tbxark/formbuilder/types"
)

func InitChatModel(t *testing.T) *openai.ChatModel {
	if os.Getenv("FORMBUILDER_RUN_LIVE_TESTS") != "1" {
		t.Skip("set FORMBUILDER_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}

	ctx := context.Background()
	conf, err := config.Load("../config.json", "../.env")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if conf.APIKey == "" {
		t.Skip("config.json api_key is empty")
		return nil
	}
	maxTokens := conf.MaxTokens
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      conf.APIKey,
		Model:       conf.Model,
		BaseURL:     conf.BaseURL,
		Temperature: conf.Temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

// GenerateForm runs the pipeline once and saves the result in a temporary
// file store.
func GenerateForm(t *testing.T, chatModel *openai.ChatModel, prompt string) (*store.FileStore, *types.FormDocument) {
	ctx := context.Background()
	forms, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	pipeline, err := generation.NewPipeline(ctx, chatModel, generation.WithWriter(forms))
	if err != nil {
		t.Fatalf("create pipeline: %v", err)
	}
	doc, result, err := pipeline.Generate(ctx, prompt)
	if err != nil {
		t.Fatalf("generate form: %v", err)
	}
	for _, v := range result.Evaluations {
		t.Logf("evaluation %s: %s (%s)", v.Component, v.Grade, v.Feedback)
	}
	return forms, doc
}
