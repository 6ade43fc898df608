// Package config provides configuration loading for netrod.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. All tunables of the troubleshooting pipeline (confidence
// thresholds, result count, generation parameters) live here and are
// validated once at startup.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete netrod configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Routing     RoutingConfig     `koanf:"routing"`
	Generation  GenerationConfig  `koanf:"generation"`
	Feedback    FeedbackConfig    `koanf:"feedback"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// EmbeddingsConfig holds embedding capability configuration.
type EmbeddingsConfig struct {
	// Provider is the embedding provider: "fastembed" (local ONNX) or "tei".
	Provider string `koanf:"provider"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// BaseURL is the TEI endpoint (tei provider only).
	BaseURL string `koanf:"base_url"`
	// CacheDir is the model cache directory (fastembed provider only).
	CacheDir string `koanf:"cache_dir"`
}

// QdrantConfig holds Qdrant gRPC connection configuration.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	UseTLS bool   `koanf:"use_tls"`
	APIKey Secret `koanf:"api_key"`
}

// ChromemConfig holds embedded chromem-go store configuration.
type ChromemConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// VectorStoreConfig holds vector store configuration.
type VectorStoreConfig struct {
	// Provider selects the store backend: "qdrant" or "chromem".
	// Chromem is the embedded offline mode; it needs no external service.
	Provider string `koanf:"provider"`
	// Collection is the corpus collection name.
	Collection string `koanf:"collection"`
	// VectorSize is the expected embedding dimension.
	VectorSize int `koanf:"vector_size"`
	// ManifestPath is where the corpus manifest is written by the indexer
	// and verified at query startup.
	ManifestPath string `koanf:"manifest_path"`

	Qdrant  QdrantConfig  `koanf:"qdrant"`
	Chromem ChromemConfig `koanf:"chromem"`
}

// RoutingConfig holds confidence routing configuration.
type RoutingConfig struct {
	// HighThreshold is the minimum top score for High confidence.
	HighThreshold float64 `koanf:"high_threshold"`
	// MediumThreshold is the minimum top score for Medium confidence.
	MediumThreshold float64 `koanf:"medium_threshold"`
	// TopK is the number of candidates retrieved per query.
	TopK int `koanf:"top_k"`
	// ContextSize is the number of candidate texts injected into the
	// Medium-mode generation prompt.
	ContextSize int `koanf:"context_size"`
}

// GenerationConfig holds generation capability configuration.
type GenerationConfig struct {
	// Provider is the generation provider: "openai" (any OpenAI-compatible
	// endpoint) or "ollama".
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	// BaseURL is the endpoint for the openai provider.
	BaseURL string `koanf:"base_url"`
	// ServerURL is the endpoint for the ollama provider.
	ServerURL string `koanf:"server_url"`
	APIKey    Secret `koanf:"api_key"`

	// Sampling parameters. Applied to every call; the token budget bounds
	// generation time.
	MaxTokens         int     `koanf:"max_tokens"`
	Temperature       float64 `koanf:"temperature"`
	TopP              float64 `koanf:"top_p"`
	RepetitionPenalty float64 `koanf:"repetition_penalty"`
}

// FeedbackConfig holds feedback recorder configuration.
type FeedbackConfig struct {
	// LogPath is the local append-only feedback log.
	LogPath string `koanf:"log_path"`
	// NATSURL is the JetStream endpoint for best-effort forwarding.
	// Empty disables forwarding; local logging still applies.
	NATSURL string `koanf:"nats_url"`
	// Bucket is the JetStream object store bucket name.
	Bucket string `koanf:"bucket"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "fastembed"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "network_issues"
	}
	if cfg.VectorStore.VectorSize == 0 {
		cfg.VectorStore.VectorSize = 384 // all-MiniLM-L6-v2 dimensions
	}
	if cfg.VectorStore.ManifestPath == "" {
		cfg.VectorStore.ManifestPath = "~/.config/netrod/manifest.json"
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
	if cfg.VectorStore.Chromem.Path == "" {
		cfg.VectorStore.Chromem.Path = "~/.config/netrod/vectorstore"
	}

	if cfg.Routing.HighThreshold == 0 {
		cfg.Routing.HighThreshold = 0.5
	}
	if cfg.Routing.MediumThreshold == 0 {
		cfg.Routing.MediumThreshold = 0.4
	}
	if cfg.Routing.TopK == 0 {
		cfg.Routing.TopK = 5
	}
	if cfg.Routing.ContextSize == 0 {
		cfg.Routing.ContextSize = 3
	}

	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "ollama"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gemma:2b-instruct"
	}
	if cfg.Generation.ServerURL == "" {
		cfg.Generation.ServerURL = "http://localhost:11434"
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 220
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.8
	}
	if cfg.Generation.TopP == 0 {
		cfg.Generation.TopP = 0.9
	}
	if cfg.Generation.RepetitionPenalty == 0 {
		cfg.Generation.RepetitionPenalty = 1.5
	}

	if cfg.Feedback.LogPath == "" {
		cfg.Feedback.LogPath = "~/.config/netrod/feedback.csv"
	}
	if cfg.Feedback.Bucket == "" {
		cfg.Feedback.Bucket = "netrod-feedback"
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Confidence thresholds are not ordered or out of [0,1]
//   - TopK or ContextSize is not positive
//   - Generation parameters are out of range
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Routing.HighThreshold < 0 || c.Routing.HighThreshold > 1 {
		return fmt.Errorf("high threshold %v out of range [0,1]", c.Routing.HighThreshold)
	}
	if c.Routing.MediumThreshold < 0 || c.Routing.MediumThreshold > 1 {
		return fmt.Errorf("medium threshold %v out of range [0,1]", c.Routing.MediumThreshold)
	}
	if c.Routing.HighThreshold <= c.Routing.MediumThreshold {
		return fmt.Errorf("high threshold %v must be greater than medium threshold %v",
			c.Routing.HighThreshold, c.Routing.MediumThreshold)
	}
	if c.Routing.TopK < 1 {
		return fmt.Errorf("top_k must be >= 1, got %d", c.Routing.TopK)
	}
	if c.Routing.ContextSize < 1 {
		return fmt.Errorf("context_size must be >= 1, got %d", c.Routing.ContextSize)
	}

	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", c.VectorStore.VectorSize)
	}
	switch c.VectorStore.Provider {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("unsupported vectorstore provider: %q (supported: qdrant, chromem)", c.VectorStore.Provider)
	}

	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.Generation.MaxTokens)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0,2]", c.Generation.Temperature)
	}
	if c.Generation.TopP <= 0 || c.Generation.TopP > 1 {
		return fmt.Errorf("top_p %v out of range (0,1]", c.Generation.TopP)
	}
	if c.Generation.RepetitionPenalty < 1 {
		return fmt.Errorf("repetition_penalty must be >= 1, got %v", c.Generation.RepetitionPenalty)
	}

	return nil
}
