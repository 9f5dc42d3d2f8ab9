package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cloudwego/eino-ext/devops"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/LeeDohoun/HQA-Project/internal/agents"
	"github.com/LeeDohoun/HQA-Project/internal/config"
	"github.com/LeeDohoun/HQA-Project/internal/dataflows"
	"github.com/LeeDohoun/HQA-Project/internal/graph"
	"github.com/LeeDohoun/HQA-Project/internal/llm"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/memory"
	"github.com/LeeDohoun/HQA-Project/internal/models"
	"github.com/LeeDohoun/HQA-Project/internal/rag"
	"github.com/LeeDohoun/HQA-Project/internal/service"
	"github.com/LeeDohoun/HQA-Project/internal/supervisor"
)

// App holds the fully wired application. One App serves every command
// of a process; indices and the task store are shared across runs.
type App struct {
	Config   *config.Config
	Service  *service.AnalysisService
	Router   *supervisor.Router
	Memory   *memory.ConversationMemory
	Ingestor *rag.Ingestor

	store   *service.TaskStore
	keyword *rag.KeywordIndex
}

// NewApp wires config, model clients, indices, data providers, agents
// and the workflow engine into a runnable application. Optional
// credentials (embedding, reranker, web search) degrade their component
// instead of failing construction.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Debug {
		// Serves the eino graph inspector for the life of the process.
		if err := devops.Init(ctx); err != nil {
			logger.Warnf("graph debug server unavailable: %v", err)
		}
	}

	client, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init model client: %w", err)
	}

	keyword, err := rag.OpenKeywordIndex(cfg.IndexDir)
	if err != nil {
		return nil, fmt.Errorf("open keyword index: %w", err)
	}

	var (
		vector    rag.VectorSearcher
		vectorIdx *rag.VectorIndex
	)
	if cfg.EmbeddingAPIKey != "" {
		var emb embedding.Embedder
		emb, err = llm.NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
		vectorIdx, err = rag.OpenVectorIndex(cfg.IndexDir, emb)
		if err != nil {
			return nil, fmt.Errorf("open vector index: %w", err)
		}
		vector = vectorIdx
	} else {
		logger.Warnf("no embedding credential, retrieval runs keyword-only")
	}

	var reranker rag.Reranker
	if cfg.RerankerURL != "" {
		reranker = rag.NewHTTPReranker(cfg)
	}

	retriever := rag.NewHybridRetriever(keyword, vector, reranker,
		rag.WithSourceK(cfg.RetrievalK),
		rag.WithRerankN(cfg.RerankTopN),
		rag.WithSourceTimeout(cfg.SourceTimeout),
	)

	web := dataflows.NewWebSearchClient(cfg)
	statements := dataflows.NewDartClient(cfg)
	prices := dataflows.NewYahooFinanceClient(cfg)

	analyst := agents.NewAnalyst(
		agents.NewResearcher(retriever, web, client),
		agents.NewStrategist(client),
	)
	quant := agents.NewQuant(statements, web, client)
	chartist := agents.NewChartist(prices)
	risk := agents.NewRiskManager(client)

	factory := func(sink models.EventSink) graph.Engine {
		return graph.NewEngine(cfg, &graph.Branches{
			Analyst:       analyst,
			Quant:         quant,
			Chartist:      chartist,
			Risk:          risk,
			BranchTimeout: cfg.BranchTimeout,
			MaxRetries:    cfg.MaxRetries,
			Sink:          sink,
		})
	}

	store, err := service.OpenTaskStore(filepath.Join(cfg.DataDir, "tasks.db"))
	if err != nil {
		keyword.Close()
		return nil, fmt.Errorf("open task store: %w", err)
	}

	mem := memory.NewConversationMemory(cfg.MemoryTurns)
	svc := service.NewAnalysisService(cfg, factory, store, mem)

	return &App{
		Config:   cfg,
		Service:  svc,
		Router:   supervisor.NewRouter(mem, client),
		Memory:   mem,
		Ingestor: &rag.Ingestor{Keyword: keyword, Vector: vectorIdx},
		store:    store,
		keyword:  keyword,
	}, nil
}

// Close releases the index and store handles.
func (a *App) Close() error {
	var firstErr error
	if err := a.keyword.Close(); err != nil {
		firstErr = err
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
