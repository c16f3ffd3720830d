package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	assert.Equal(t, "text-embedding-3-large", cfg.LLM.MainEmbeddingModel)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, "diary_chunks", cfg.Collections.Chunks)
	assert.Equal(t, "diary_summaries", cfg.Collections.Summaries)
	assert.Equal(t, "diary_main", cfg.Collections.Main)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("llm:\n  chat_model: gpt-4.1\nvector_store:\n  type: qdrant\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", cfg.LLM.ChatModel)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.JudgeModel)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "QDRANT_API_KEY", cfg.VectorStore.Qdrant.APIKeyEnv)
	assert.Equal(t, 15, cfg.VectorStore.Qdrant.TimeoutSecs)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [broken"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Retrieval.TopK = 7
	cfg.Corpus.Path = "journal.txt"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retrieval.TopK)
	assert.Equal(t, "journal.txt", loaded.Corpus.Path)
}

func TestLoadDefaultHonorsEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: 9\n"), 0o644))
	t.Setenv("MENTIS_CONFIG", path)

	cfg, usedPath, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, path, usedPath)
	assert.Equal(t, 9, cfg.Retrieval.TopK)
}

func TestAPIKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.APIKeyEnv = "MENTIS_TEST_KEY"

	t.Run("missing env is a configuration error", func(t *testing.T) {
		t.Setenv("MENTIS_TEST_KEY", "")
		_, err := cfg.APIKey()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})

	t.Run("present env resolves", func(t *testing.T) {
		t.Setenv("MENTIS_TEST_KEY", "sk-test")
		key, err := cfg.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "sk-test", key)
	})
}

func TestEmbeddingDimension(t *testing.T) {
	cfg := defaultConfig()

	d, err := cfg.EmbeddingDimension("text-embedding-3-small")
	require.NoError(t, err)
	assert.Equal(t, 1536, d)

	d, err = cfg.EmbeddingDimension("text-embedding-3-large")
	require.NoError(t, err)
	assert.Equal(t, 3072, d)

	t.Run("override wins", func(t *testing.T) {
		cfg.LLM.Dimensions = map[string]int{"custom-model": 768}
		d, err := cfg.EmbeddingDimension("custom-model")
		require.NoError(t, err)
		assert.Equal(t, 768, d)
	})

	t.Run("unknown model is a configuration error", func(t *testing.T) {
		_, err := cfg.EmbeddingDimension("mystery-model")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})
}
