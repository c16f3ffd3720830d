// Package app wires configuration into running components. It is the
// single assembly point shared by all command binaries.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/chat"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/chunker"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/config"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/encoder"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/eval"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/llm"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/retriever"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/summarizer"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/vectorstore/memory"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/vectorstore/pgvector"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/vectorstore/qdrant"
)

// App holds the wired components for one process.
type App struct {
	Config *config.Config
	Log    *slog.Logger

	Store     domain.Store
	Chunker   domain.Chunker
	Completer domain.Completer

	Simple  domain.Retriever
	Summary domain.Retriever
	Main    domain.Retriever

	ragsEmbedder domain.Embedder
	mainEmbedder domain.Embedder
	judge        domain.Completer
	closeStore   func() error
}

// NewStore builds just the vector store from config. Used by commands that
// do not need the LLM stack, like clean. The returned closer is never nil.
func NewStore(cfg *config.Config) (domain.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStore(), noop, nil
	case "qdrant":
		qc := cfg.VectorStore.Qdrant
		if qc == nil || qc.URL == "" {
			return nil, nil, fmt.Errorf("%w: vector_store.qdrant.url is not set", domain.ErrConfiguration)
		}
		store := qdrant.NewStore(qdrant.Config{
			URL:     qc.URL,
			APIKey:  os.Getenv(qc.APIKeyEnv),
			Timeout: time.Duration(qc.TimeoutSecs) * time.Second,
		})
		return store, noop, nil
	case "pgvector":
		pc := cfg.VectorStore.PGVector
		if pc == nil {
			return nil, nil, fmt.Errorf("%w: vector_store.pgvector is not configured", domain.ErrConfiguration)
		}
		url := os.Getenv(pc.URLEnv)
		if url == "" {
			return nil, nil, fmt.Errorf("%w: missing database URL in env %s", domain.ErrConfiguration, pc.URLEnv)
		}
		store, err := pgvector.NewStore(url, pc.TablePrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: pgvector: %v", domain.ErrConfiguration, err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown vector store type %q", domain.ErrConfiguration, cfg.VectorStore.Type)
	}
}

// New wires the full component graph: store, embedders, completers,
// retrievers. Missing credentials surface here as configuration errors,
// before any retrieval or encode work starts.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	client := llm.NewClient(llm.Config{APIKey: apiKey, BaseURL: cfg.LLM.BaseURL})

	store, closeStore, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	ragsDim, err := cfg.EmbeddingDimension(cfg.LLM.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	mainDim, err := cfg.EmbeddingDimension(cfg.LLM.MainEmbeddingModel)
	if err != nil {
		return nil, err
	}
	ragsEmbedder := llm.NewEmbedder(client, cfg.LLM.EmbeddingModel, ragsDim, cfg.EmbedTimeout())
	mainEmbedder := llm.NewEmbedder(client, cfg.LLM.MainEmbeddingModel, mainDim, cfg.EmbedTimeout())

	completer := llm.NewCompleter(client, cfg.LLM.ChatModel, cfg.ChatTimeout())

	var rewriter domain.Completer
	if cfg.Retrieval.RewriteMain {
		rewriter = completer
	}

	return &App{
		Config:       cfg,
		Log:          log,
		Store:        store,
		Chunker:      chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences),
		Completer:    completer,
		Simple:       retriever.NewSimpleRag(ragsEmbedder, store, cfg.Collections.Chunks),
		Summary:      retriever.NewSummaryRag(ragsEmbedder, store, cfg.Collections.Summaries, cfg.Collections.Chunks, log),
		Main:         retriever.NewMain(mainEmbedder, store, cfg.Collections.Main, rewriter, log),
		ragsEmbedder: ragsEmbedder,
		mainEmbedder: mainEmbedder,
		judge:        llm.NewCompleter(client, cfg.LLM.JudgeModel, cfg.ChatTimeout()),
		closeStore:   closeStore,
	}, nil
}

// Close releases backend connections.
func (a *App) Close() error {
	if a.closeStore != nil {
		return a.closeStore()
	}
	return nil
}

// Retrievers returns the three retrievers in merge priority order.
func (a *App) Retrievers() []domain.Retriever {
	return []domain.Retriever{a.Simple, a.Summary, a.Main}
}

// Summarizer builds the configured chunk summarizer.
func (a *App) Summarizer() domain.Summarizer {
	if a.Config.Summarizer.Type == "llm" {
		return summarizer.NewLLMSummarizer(a.Completer)
	}
	return summarizer.NewFrequencySummarizer()
}

// Pipeline builds the encode pipeline over the configured collections.
func (a *App) Pipeline() *encoder.Pipeline {
	return encoder.NewPipeline(
		a.Chunker,
		a.Summarizer(),
		encoder.NewEncoder(a.ragsEmbedder, a.Store, a.Log),
		encoder.NewEncoder(a.mainEmbedder, a.Store, a.Log),
		encoder.Collections{
			Chunks:    a.Config.Collections.Chunks,
			Summaries: a.Config.Collections.Summaries,
			Main:      a.Config.Collections.Main,
		},
		a.Config.Summarizer.MaxSentences,
		a.Log,
	)
}

// ChatOrchestrator answers through all three retrievers.
func (a *App) ChatOrchestrator() *chat.Orchestrator {
	return chat.NewOrchestrator(a.Retrievers(), a.Completer, a.Config.Retrieval.TopK, chat.DefaultSystemPrompt, a.Log)
}

// MentisOrchestrator answers through the main retriever only.
func (a *App) MentisOrchestrator() *chat.Orchestrator {
	return chat.NewOrchestrator([]domain.Retriever{a.Main}, a.Completer, a.Config.Retrieval.TopK, chat.MentisSystemPrompt, a.Log)
}

// Evaluator builds the retrieval evaluator with the judge model.
func (a *App) Evaluator() *eval.Evaluator {
	return eval.NewEvaluator(a.Retrievers(), a.Completer, eval.NewLLMJudge(a.judge), a.Config.Eval.TopK, a.Log)
}

// LoadCorpus reads the plain-text corpus the encode commands consume. The
// path argument overrides the configured one when non-empty.
func (a *App) LoadCorpus(path string) (domain.Document, error) {
	if path == "" {
		path = a.Config.Corpus.Path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: read corpus %s: %v", domain.ErrConfiguration, path, err)
	}
	return domain.Document{Path: path, Content: string(data)}, nil
}
