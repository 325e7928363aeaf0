// Package config loads the settings shared by the CLI and the live tests.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel       = "gpt-4.1-nano"
	DefaultTemperature = 1
	DefaultMaxTokens   = 4096
	DefaultDataDir     = "data"
	DefaultLang        = "English"

	StoreFile   = "file"
	StoreSQLite = "sqlite"

	EditModeDocument = "document"
	EditModePatch    = "patch"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	APIKey            string   `json:"api_key" yaml:"api_key"`
	BaseURL           string   `json:"base_url" yaml:"base_url"`
	Model             string   `json:"model" yaml:"model"`
	Temperature       *float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens         int      `json:"max_tokens" yaml:"max_tokens"`
	DataDir           string   `json:"data_dir" yaml:"data_dir"`
	Store             string   `json:"store" yaml:"store"`
	SQLitePath        string   `json:"sqlite_path" yaml:"sqlite_path"`
	TemplatesCSV      string   `json:"templates_csv" yaml:"templates_csv"`
	RetrievalTopK     int      `json:"retrieval_top_k" yaml:"retrieval_top_k"`
	RetrievalMinScore float64  `json:"retrieval_min_score" yaml:"retrieval_min_score"`
	HistoryWindow     int      `json:"history_window" yaml:"history_window"`
	Lang              string   `json:"lang" yaml:"lang"`
	EditMode          string   `json:"edit_mode" yaml:"edit_mode"`
	LogLevel          string   `json:"log_level" yaml:"log_level"`
}

// Default returns a config with every default filled in and no api key.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path (JSON, or YAML for .yaml/.yml), loads .env files found in
// the working directory, applies environment overrides and defaults. A
// missing path is not an error when it is empty.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	conf := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err = decode(path, data, conf); err != nil {
			return nil, err
		}
	}
	conf.applyEnv()
	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

func decode(path string, data []byte, conf *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, conf); err != nil {
			return fmt.Errorf("%w: parse yaml: %v", ErrInvalidConfig, err)
		}
	default:
		if err := sonic.Unmarshal(data, conf); err != nil {
			return fmt.Errorf("%w: parse json: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.APIKey, "OPENAI_API_KEY")
	override(&c.BaseURL, "OPENAI_BASE_URL")
	override(&c.Model, "OPENAI_MODEL")
	override(&c.DataDir, "FORMBUILDER_DATA_DIR")
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == nil {
		t := float32(DefaultTemperature)
		c.Temperature = &t
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Store == "" {
		c.Store = StoreFile
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.DataDir, "forms.db")
	}
	if c.RetrievalTopK <= 0 {
		c.RetrievalTopK = 3
	}
	if c.RetrievalMinScore <= 0 {
		c.RetrievalMinScore = 0.7
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 6
	}
	if c.Lang == "" {
		c.Lang = DefaultLang
	}
	if c.EditMode == "" {
		c.EditMode = EditModeDocument
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreFile, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store))
	}
	switch c.EditMode {
	case EditModeDocument, EditModePatch:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown edit_mode %q", ErrInvalidConfig, c.EditMode))
	}
	if c.RetrievalMinScore > 1 {
		errs = append(errs, fmt.Errorf("%w: retrieval_min_score must be within (0, 1]", ErrInvalidConfig))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level maps log_level to a slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	return level, nil
}

func (c *Config) FormsDir() string {
	return filepath.Join(c.DataDir, "form_builder")
}

func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "chat_history")
}

func (c *Config) OutputDir() string {
	return filepath.Join(c.DataDir, "output")
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{BaseURL:%q, Model:%q, DataDir:%q, Store:%q}", c.BaseURL, c.Model, c.DataDir, c.Store)
}
