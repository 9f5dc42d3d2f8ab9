package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "graph", cfg.Engine)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 20, cfg.RetrievalK)
	assert.Equal(t, 10, cfg.MemoryTurns)
	assert.Equal(t, 120*time.Second, cfg.BranchTimeout)
}

func TestValidateRequiresCredential(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorIs(t, cfg.Validate(), ErrNoCredential)

	cfg.LLMAPIKey = "sk-test"
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("HQA_LLM_API_KEY", "sk-env")
	t.Setenv("HQA_ENGINE", "pool")
	t.Setenv("HQA_BRANCH_TIMEOUT", "30s")

	cfg := LoadFromEnv()

	assert.Equal(t, "sk-env", cfg.LLMAPIKey)
	assert.Equal(t, "pool", cfg.Engine)
	assert.Equal(t, 30*time.Second, cfg.BranchTimeout)
	// embedding key falls back to the LLM key
	assert.Equal(t, "sk-env", cfg.EmbeddingAPIKey)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.ResultsDir = filepath.Join(dir, "results")
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.IndexDir = filepath.Join(dir, "data", "index")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.IndexDir)
}
