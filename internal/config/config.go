package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrNoCredential is returned when no LLM credential is configured at all.
// This is the only configuration state that makes an analysis run impossible.
var ErrNoCredential = errors.New("no LLM API key configured")

// Workflow engine implementations.
const (
	EngineGraph = "graph"
	EnginePool  = "pool"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	ResultsDir string `json:"results_dir"`
	DataDir    string `json:"data_dir"`
	IndexDir   string `json:"index_dir"`

	LLMProvider   string `json:"llm_provider"` // openai | deepseek
	LLMAPIKey     string `json:"llm_api_key"`
	LLMBaseURL    string `json:"llm_base_url"`
	InstructModel string `json:"instruct_model"`
	ThinkingModel string `json:"thinking_model"`

	EmbeddingModel   string `json:"embedding_model"`
	EmbeddingAPIKey  string `json:"embedding_api_key"`
	EmbeddingBaseURL string `json:"embedding_base_url"`

	RerankerURL    string `json:"reranker_url"` // empty disables reranking
	RerankerAPIKey string `json:"reranker_api_key"`

	WebSearchURL    string `json:"web_search_url"`
	WebSearchAPIKey string `json:"web_search_api_key"`
	DartAPIKey      string `json:"dart_api_key"`

	// Engine selection: EngineGraph runs the eino state machine,
	// EnginePool the concurrent-tasks-plus-join implementation. Both
	// satisfy the same workflow contract.
	Engine string `json:"engine"`

	MaxRetries    int           `json:"max_retries"` // research retry bound
	BranchTimeout time.Duration `json:"branch_timeout"`
	SourceTimeout time.Duration `json:"source_timeout"`

	RetrievalK  int `json:"retrieval_k"`  // per-source candidate pool
	RerankTopN  int `json:"rerank_top_n"` // shortlist passed to the reranker
	MemoryTurns int `json:"memory_turns"` // conversation turns kept per session

	LogLevel string `json:"log_level"`
	Env      string `json:"env"`
	Debug    bool   `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir: currentDir,
		ResultsDir: filepath.Join(currentDir, "results"),
		DataDir:    filepath.Join(currentDir, "data"),
		IndexDir:   filepath.Join(currentDir, "data", "index"),

		LLMProvider:   "openai",
		LLMBaseURL:    "https://api.openai.com/v1",
		InstructModel: "gpt-4o-mini",
		ThinkingModel: "o4-mini",

		EmbeddingModel: "text-embedding-3-small",

		WebSearchURL: "https://google.serper.dev/search",

		Engine:        EngineGraph,
		MaxRetries:    1,
		BranchTimeout: 120 * time.Second,
		SourceTimeout: 10 * time.Second,

		RetrievalK:  20,
		RerankTopN:  20,
		MemoryTurns: 10,

		LogLevel: "info",
		Env:      "development",
	}
}

// LoadFromEnv layers environment variables over the defaults. A .env file
// in the working directory is honored when present.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&cfg.LLMProvider, "HQA_LLM_PROVIDER")
	setStr(&cfg.LLMAPIKey, "HQA_LLM_API_KEY")
	setStr(&cfg.LLMBaseURL, "HQA_LLM_BASE_URL")
	setStr(&cfg.InstructModel, "HQA_INSTRUCT_MODEL")
	setStr(&cfg.ThinkingModel, "HQA_THINKING_MODEL")
	setStr(&cfg.EmbeddingModel, "HQA_EMBEDDING_MODEL")
	setStr(&cfg.EmbeddingAPIKey, "HQA_EMBEDDING_API_KEY")
	setStr(&cfg.EmbeddingBaseURL, "HQA_EMBEDDING_BASE_URL")
	setStr(&cfg.RerankerURL, "HQA_RERANKER_URL")
	setStr(&cfg.RerankerAPIKey, "HQA_RERANKER_API_KEY")
	setStr(&cfg.WebSearchURL, "HQA_WEB_SEARCH_URL")
	setStr(&cfg.WebSearchAPIKey, "HQA_WEB_SEARCH_API_KEY")
	setStr(&cfg.DartAPIKey, "DART_API_KEY")
	setStr(&cfg.Engine, "HQA_ENGINE")
	setStr(&cfg.ResultsDir, "HQA_RESULTS_DIR")
	setStr(&cfg.DataDir, "HQA_DATA_DIR")
	setStr(&cfg.IndexDir, "HQA_INDEX_DIR")
	setStr(&cfg.LogLevel, "HQA_LOG_LEVEL")
	setStr(&cfg.Env, "HQA_ENV")

	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.LLMAPIKey
	}
	if v := os.Getenv("HQA_DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("HQA_BRANCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BranchTimeout = d
		}
	}

	return cfg
}

// Validate checks the analysis-blocking configuration class. Missing
// search/reranker credentials merely degrade individual sources.
func (c *Config) Validate() error {
	if c.LLMAPIKey == "" {
		return ErrNoCredential
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir, c.DataDir, c.IndexDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
