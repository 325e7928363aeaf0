package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/formbuilder/answers"
	"github.com/tbxark/formbuilder/assistant"
	"github.com/tbxark/formbuilder/config"
	"github.com/tbxark/formbuilder/editor"
	"github.com/tbxark/formbuilder/retrieval"
	"github.com/tbxark/formbuilder/store"
)

// app holds what the commands share. Everything is opened lazily so that
// commands that do not talk to the model work without an api key.
type app struct {
	configPath string
	envFile    string

	conf   *config.Config
	forms  store.Store
	closer io.Closer
	model  model.ToolCallingChatModel
}

func (a *app) load() error {
	var envFiles []string
	if a.envFile != "" {
		envFiles = append(envFiles, a.envFile)
	}
	path := a.configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	conf, err := config.Load(path, envFiles...)
	if err != nil {
		return err
	}
	a.conf = conf
	level, err := conf.Level()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("Config loaded", "config", conf.String())
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			slog.Error("Failed to close store", "err", err)
		}
	}
}

func (a *app) formStore(ctx context.Context) (store.Store, error) {
	if a.forms != nil {
		return a.forms, nil
	}
	switch a.conf.Store {
	case config.StoreSQLite:
		s, err := store.NewSQLiteStore(ctx, a.conf.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.forms, a.closer = s, s
	default:
		s, err := store.NewFileStore(a.conf.FormsDir())
		if err != nil {
			return nil, err
		}
		a.forms = s
	}
	return a.forms, nil
}

func (a *app) chatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	if a.model != nil {
		return a.model, nil
	}
	if a.conf.APIKey == "" {
		return nil, errors.New("api key not set, use api_key in the config file or OPENAI_API_KEY")
	}
	maxTokens := a.conf.MaxTokens
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      a.conf.APIKey,
		BaseURL:     a.conf.BaseURL,
		Model:       a.conf.Model,
		Temperature: a.conf.Temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	a.model = cm
	return cm, nil
}

func (a *app) templates() ([]retrieval.Template, error) {
	if a.conf.TemplatesCSV == "" {
		return nil, nil
	}
	return retrieval.LoadTemplatesFile(a.conf.TemplatesCSV)
}

func (a *app) answerStore() (*answers.CSVStore, error) {
	return answers.NewCSVStore(a.conf.OutputDir())
}

func (a *app) assistant(ctx context.Context) (*assistant.Assistant, error) {
	forms, err := a.formStore(ctx)
	if err != nil {
		return nil, err
	}
	cm, err := a.chatModel(ctx)
	if err != nil {
		return nil, err
	}
	history, err := assistant.NewFileHistoryStore(a.conf.HistoryDir(), nil)
	if err != nil {
		return nil, err
	}
	opts := []assistant.Option{
		assistant.WithHistoryStore(history),
		assistant.WithHistoryWindow(a.conf.HistoryWindow),
		assistant.WithLang(a.conf.Lang),
	}
	if a.conf.EditMode == config.EditModePatch {
		pe, pErr := editor.NewPatchEditor(cm)
		if pErr != nil {
			return nil, pErr
		}
		opts = append(opts, assistant.WithEditor(pe))
	}
	templates, err := a.templates()
	if err != nil {
		slog.Warn("Template corpus not loaded, continuing without retrieval", "err", err)
	}
	if len(templates) > 0 {
		opts = append(opts, assistant.WithRetriever(retrieval.NewTemplateRetriever(templates), a.conf.RetrievalTopK, a.conf.RetrievalMinScore))
	}
	return assistant.NewFromChatModel(forms, cm, opts...)
}
