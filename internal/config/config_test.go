package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, "network_issues", cfg.VectorStore.Collection)
	assert.Equal(t, 384, cfg.VectorStore.VectorSize)
	assert.Equal(t, 0.5, cfg.Routing.HighThreshold)
	assert.Equal(t, 0.4, cfg.Routing.MediumThreshold)
	assert.Equal(t, 5, cfg.Routing.TopK)
	assert.Equal(t, 220, cfg.Generation.MaxTokens)
	assert.Equal(t, 0.8, cfg.Generation.Temperature)
	assert.Equal(t, 0.9, cfg.Generation.TopP)
	assert.Equal(t, 1.5, cfg.Generation.RepetitionPenalty)

	require.NoError(t, cfg.Validate())
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := Default()
	cfg.Routing.HighThreshold = 0.4
	cfg.Routing.MediumThreshold = 0.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be greater than")
}

func TestValidate_ThresholdRange(t *testing.T) {
	cfg := Default()
	cfg.Routing.HighThreshold = 1.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	cfg = Default()
	cfg.Routing.MediumThreshold = -0.1
	assert.Error(t, cfg.Validate())
}

func TestValidate_TopK(t *testing.T) {
	cfg := Default()
	cfg.Routing.TopK = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top_k")
}

func TestValidate_GenerationParams(t *testing.T) {
	cfg := Default()
	cfg.Generation.MaxTokens = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Generation.TopP = 1.2
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Generation.RepetitionPenalty = 0.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_Provider(t *testing.T) {
	cfg := Default()
	cfg.VectorStore.Provider = "pinecone"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported vectorstore provider")
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 8088
routing:
  high_threshold: 0.7
  medium_threshold: 0.3
  top_k: 10
vectorstore:
  provider: qdrant
  collection: lab_issues
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 0.7, cfg.Routing.HighThreshold)
	assert.Equal(t, 0.3, cfg.Routing.MediumThreshold)
	assert.Equal(t, 10, cfg.Routing.TopK)
	assert.Equal(t, "qdrant", cfg.VectorStore.Provider)
	assert.Equal(t, "lab_issues", cfg.VectorStore.Collection)
	// Defaults still fill unset fields.
	assert.Equal(t, 220, cfg.Generation.MaxTokens)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ROUTING_TOP_K", "7")
	t.Setenv("GENERATION_MAX_TOKENS", "128")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routing:\n  top_k: 3\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Routing.TopK)
	assert.Equal(t, 128, cfg.Generation.MaxTokens)
}

func TestLoad_EnvOverrideNestedSections(t *testing.T) {
	t.Setenv("VECTORSTORE_QDRANT_HOST", "qdrant.lab.internal")
	t.Setenv("VECTORSTORE_QDRANT_API_KEY", "env-key")
	t.Setenv("VECTORSTORE_CHROMEM_PATH", "/var/lib/netrod/store")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "qdrant.lab.internal", cfg.VectorStore.Qdrant.Host)
	assert.Equal(t, "env-key", cfg.VectorStore.Qdrant.APIKey.Value())
	assert.Equal(t, "/var/lib/netrod/store", cfg.VectorStore.Chromem.Path)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "routing.top_k", envKey("ROUTING_TOP_K"))
	assert.Equal(t, "vectorstore.qdrant.api_key", envKey("VECTORSTORE_QDRANT_API_KEY"))
	assert.Equal(t, "vectorstore.chromem.path", envKey("VECTORSTORE_CHROMEM_PATH"))
	assert.Equal(t, "vectorstore.collection", envKey("VECTORSTORE_COLLECTION"))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routing:\n  high_threshold: 0.2\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("qdrant-api-key")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "qdrant-api-key", s.Value())
	assert.True(t, s.IsSet())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("15s")))
	assert.Equal(t, 15*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("bogus")))
}
