package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "FORMBUILDER_DATA_DIR"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, DefaultModel, c.Model)
	require.NotNil(t, c.Temperature)
	assert.InDelta(t, 1.0, float64(*c.Temperature), 1e-9)
	assert.Equal(t, 4096, c.MaxTokens)
	assert.Equal(t, 3, c.RetrievalTopK)
	assert.InDelta(t, 0.7, c.RetrievalMinScore, 1e-9)
	assert.Equal(t, 6, c.HistoryWindow)
	assert.Equal(t, "English", c.Lang)
	assert.Equal(t, StoreFile, c.Store)
	assert.Equal(t, EditModeDocument, c.EditMode)
	assert.Equal(t, filepath.Join("data", "form_builder"), c.FormsDir())
	assert.Equal(t, filepath.Join("data", "chat_history"), c.HistoryDir())
	assert.Equal(t, filepath.Join("data", "output"), c.OutputDir())
	assert.NoError(t, c.Validate())
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"api_key":"file-key","model":"gpt-4o","temperature":0.2,"history_window":10,"store":"sqlite"}`)
	t.Setenv("OPENAI_API_KEY", "env-key")

	c, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", c.APIKey)
	assert.Equal(t, "gpt-4o", c.Model)
	assert.InDelta(t, 0.2, float64(*c.Temperature), 1e-6)
	assert.Equal(t, 10, c.HistoryWindow)
	assert.Equal(t, StoreSQLite, c.Store)
	assert.Equal(t, filepath.Join("data", "forms.db"), c.SQLitePath)
}

func TestLoadYAMLAndDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "model: gpt-4.1-mini\nlang: French\nedit_mode: patch\nlog_level: debug\n")
	env := writeFile(t, dir, "test.env", "FORMBUILDER_DATA_DIR="+filepath.Join(dir, "store")+"\n")

	c, err := Load(path, env)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", c.Model)
	assert.Equal(t, "French", c.Lang)
	assert.Equal(t, EditModePatch, c.EditMode)
	assert.Equal(t, filepath.Join(dir, "store", "form_builder"), c.FormsDir())
	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(writeFile(t, dir, "bad.json", `{"model":`), filepath.Join(dir, "none.env"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeFile(t, dir, "store.json", `{"store":"postgres","log_level":"loud"}`), filepath.Join(dir, "none.env"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "postgres")
	assert.Contains(t, err.Error(), "log_level")

	_, err = Load(filepath.Join(dir, "absent.json"), filepath.Join(dir, "none.env"))
	assert.Error(t, err)
}
