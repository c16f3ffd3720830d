package retriever

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

const rewritePrompt = "You rewrite diary search queries. Rephrase the user's question " +
	"as a short, concrete statement of what a matching diary passage would say. " +
	"Reply with only the rewritten query."

// Main searches the main collection populated by the primary encoder. It
// can optionally rewrite the query through a completion before embedding
// it; a failed rewrite falls back to the original query rather than
// failing the retrieval.
type Main struct {
	embedder   domain.Embedder
	store      domain.Store
	collection string
	rewriter   domain.Completer
	log        *slog.Logger
}

func NewMain(embedder domain.Embedder, store domain.Store, collection string, rewriter domain.Completer, log *slog.Logger) *Main {
	if log == nil {
		log = slog.Default()
	}
	return &Main{embedder: embedder, store: store, collection: collection, rewriter: rewriter, log: log}
}

func (r *Main) Name() string { return "main" }

func (r *Main) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	hits, err := search(ctx, r.Name(), r.embedder, r.store, r.collection, r.rewrite(ctx, query), topK)
	if err != nil {
		return nil, err
	}
	return scoredChunks(hits), nil
}

func (r *Main) rewrite(ctx context.Context, query string) string {
	if r.rewriter == nil {
		return query
	}
	rewritten, err := r.rewriter.Complete(ctx, rewritePrompt, query)
	if err != nil {
		r.log.Warn("query rewrite failed, using original query", "error", err)
		return query
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return query
	}
	return rewritten
}
