package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// LLMConfig configures the OpenAI-backed embedding and completion clients.
// Credentials are never stored in the file; APIKeyEnv names the environment
// variable that holds the key.
type LLMConfig struct {
	APIKeyEnv          string         `yaml:"api_key_env"`
	BaseURL            string         `yaml:"base_url,omitempty"`
	ChatModel          string         `yaml:"chat_model"`
	JudgeModel         string         `yaml:"judge_model"`
	EmbeddingModel     string         `yaml:"embedding_model"`
	MainEmbeddingModel string         `yaml:"main_embedding_model"`
	EmbedTimeoutSecs   int            `yaml:"embed_timeout_secs"`
	ChatTimeoutSecs    int            `yaml:"chat_timeout_secs"`
	Dimensions         map[string]int `yaml:"dimensions,omitempty"`
}

// ChunkerConfig configures how corpus text is split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// SummarizerConfig selects and configures the per-chunk summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PGVectorConfig contains connection details for a pgvector-enabled
// Postgres. The connection URL lives in the environment, not the file.
type PGVectorConfig struct {
	URLEnv      string `yaml:"url_env"`
	TablePrefix string `yaml:"table_prefix"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	PGVector *PGVectorConfig `yaml:"pgvector,omitempty"`
}

// CollectionsConfig names the three collections the encoders populate.
type CollectionsConfig struct {
	Chunks    string `yaml:"chunks"`
	Summaries string `yaml:"summaries"`
	Main      string `yaml:"main"`
}

// RetrievalConfig holds query-time knobs shared by the retrievers.
type RetrievalConfig struct {
	TopK        int  `yaml:"top_k"`
	RewriteMain bool `yaml:"rewrite_main"`
}

// CorpusConfig points at the plain-text corpus to encode.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// EvalConfig configures the retrieval evaluation run.
type EvalConfig struct {
	CasesPath  string `yaml:"cases_path"`
	ResultsDir string `yaml:"results_dir"`
	TopK       int    `yaml:"top_k"`
}

// Config is the root application configuration structure.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Collections CollectionsConfig `yaml:"collections"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Corpus      CorpusConfig      `yaml:"corpus"`
	Eval        EvalConfig        `yaml:"eval"`
}

// Load reads a config from the given path. If the file does not exist,
// returns defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("%w: read config: %v", domain.ErrConfiguration, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", domain.ErrConfiguration, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault resolves the config path in order: the MENTIS_CONFIG
// environment variable, ./config.yaml, ~/.config/mentis/config.yaml.
// If none exists, defaults are written to the user path and returned.
func LoadDefault() (*Config, string, error) {
	if envPath := os.Getenv("MENTIS_CONFIG"); envPath != "" {
		cfg, err := Load(envPath)
		return cfg, envPath, err
	}
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return nil
}

// APIKey resolves the LLM credential from the environment. Absence is a
// configuration error surfaced at startup rather than mid-call.
func (c *Config) APIKey() (string, error) {
	key := os.Getenv(c.LLM.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: missing API key in env %s", domain.ErrConfiguration, c.LLM.APIKeyEnv)
	}
	return key, nil
}

// EmbeddingDimension returns the dimensionality of the given embedding
// model, honoring overrides from the dimensions map.
func (c *Config) EmbeddingDimension(model string) (int, error) {
	if d, ok := c.LLM.Dimensions[model]; ok && d > 0 {
		return d, nil
	}
	if d, ok := knownDimensions[model]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: unknown embedding dimension for model %q (set llm.dimensions)", domain.ErrConfiguration, model)
}

// EmbedTimeout returns the bounded timeout applied to embedding calls.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.LLM.EmbedTimeoutSecs) * time.Second
}

// ChatTimeout returns the bounded timeout applied to completion calls.
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.LLM.ChatTimeoutSecs) * time.Second
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mentis", "config.yaml"), nil
}

// knownDimensions maps the embedding models we use by default to their
// fixed output dimensionality.
var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.ChatModel == "" {
		cfg.LLM.ChatModel = "gpt-4o"
	}
	if cfg.LLM.JudgeModel == "" {
		cfg.LLM.JudgeModel = "gpt-4o-mini"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.LLM.MainEmbeddingModel == "" {
		cfg.LLM.MainEmbeddingModel = "text-embedding-3-large"
	}
	if cfg.LLM.EmbedTimeoutSecs == 0 {
		cfg.LLM.EmbedTimeoutSecs = 30
	}
	if cfg.LLM.ChatTimeoutSecs == 0 {
		cfg.LLM.ChatTimeoutSecs = 120
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "sentence"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 2
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.URL == "" {
			cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.VectorStore.Qdrant.APIKeyEnv == "" {
			cfg.VectorStore.Qdrant.APIKeyEnv = "QDRANT_API_KEY"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.VectorStore.Type == "pgvector" {
		if cfg.VectorStore.PGVector == nil {
			cfg.VectorStore.PGVector = &PGVectorConfig{}
		}
		if cfg.VectorStore.PGVector.URLEnv == "" {
			cfg.VectorStore.PGVector.URLEnv = "PGVECTOR_URL"
		}
		if cfg.VectorStore.PGVector.TablePrefix == "" {
			cfg.VectorStore.PGVector.TablePrefix = "mentis_"
		}
	}
	if cfg.Collections.Chunks == "" {
		cfg.Collections.Chunks = "diary_chunks"
	}
	if cfg.Collections.Summaries == "" {
		cfg.Collections.Summaries = "diary_summaries"
	}
	if cfg.Collections.Main == "" {
		cfg.Collections.Main = "diary_main"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "diary.txt"
	}
	if cfg.Eval.CasesPath == "" {
		cfg.Eval.CasesPath = filepath.Join("evaluation", "cases.yaml")
	}
	if cfg.Eval.ResultsDir == "" {
		cfg.Eval.ResultsDir = filepath.Join("evaluation", "results")
	}
	if cfg.Eval.TopK == 0 {
		cfg.Eval.TopK = 5
	}
}
