// Package retriever implements the three retrieval strategies over the
// vector store: direct chunk search, summary search with chunk resolution,
// and the main-collection search with an optional query rewrite. All three
// satisfy domain.Retriever; which collections and embedders they use is
// configuration, not behavior.
package retriever

import (
	"context"
	"fmt"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// search embeds the query and runs a nearest-neighbour search against the
// collection. topK <= 0 short-circuits to an empty result; topK > 0 with
// zero candidates is a retrieval failure per the retriever contract.
func search(ctx context.Context, name string, embedder domain.Embedder, store domain.Store, collection, query string, topK int) ([]domain.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	vectors, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: embed query: %v", domain.ErrRetrieval, name, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: %s: got %d query vectors", domain.ErrRetrieval, name, len(vectors))
	}
	hits, err := store.Query(ctx, collection, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: query %s: %v", domain.ErrRetrieval, name, collection, err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: %s: no candidates in %s", domain.ErrRetrieval, name, collection)
	}
	return hits, nil
}

func scoredChunks(hits []domain.Hit) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = domain.ScoredChunk{Chunk: domain.ChunkFromPayload(h.Payload), Score: h.Score}
	}
	return out
}
