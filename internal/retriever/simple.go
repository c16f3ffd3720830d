package retriever

import (
	"context"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// SimpleRag searches the raw chunk collection directly with the query
// embedding and returns the top-k chunks by similarity.
type SimpleRag struct {
	embedder   domain.Embedder
	store      domain.Store
	collection string
}

func NewSimpleRag(embedder domain.Embedder, store domain.Store, collection string) *SimpleRag {
	return &SimpleRag{embedder: embedder, store: store, collection: collection}
}

func (r *SimpleRag) Name() string { return "simple_rag" }

func (r *SimpleRag) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	hits, err := search(ctx, r.Name(), r.embedder, r.store, r.collection, query, topK)
	if err != nil || hits == nil {
		return nil, err
	}
	return scoredChunks(hits), nil
}
