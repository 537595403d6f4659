package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8081", cfg.App.Port)
	assert.Equal(t, 1, cfg.Rag.TopK)
	assert.InDelta(t, 0.1, cfg.Rag.MinScore, 1e-9)
	assert.Equal(t, 1000, cfg.Rag.ChunkSize)
	assert.Equal(t, 200, cfg.Rag.ChunkOverlap)
	assert.Equal(t, "wss://api.openai.com/v1/realtime", cfg.Realtime.Endpoint)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("RAG_TOP_K", "5")
	t.Setenv("RAG_CHUNKED_INGESTION", "true")

	cfg := Load()
	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, 5, cfg.Rag.TopK)
	assert.True(t, cfg.Rag.ChunkedIngestion)
}

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := Load()
	cfg.Keys.OpenAI = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestValidateRejectsBadOverlap(t *testing.T) {
	cfg := Load()
	cfg.Keys.OpenAI = "key"
	cfg.Rag.ChunkSize = 100
	cfg.Rag.ChunkOverlap = 100

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAG_CHUNK_OVERLAP")
}
