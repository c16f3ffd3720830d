package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// SummaryRag searches the summary collection and resolves each hit back to
// its full chunk in the chunk collection via the chunk ID stored in the
// summary payload. If a source chunk has disappeared between encodes, the
// summary text itself is returned so the hit is not silently dropped.
type SummaryRag struct {
	embedder  domain.Embedder
	store     domain.Store
	summaries string
	chunks    string
	log       *slog.Logger
}

func NewSummaryRag(embedder domain.Embedder, store domain.Store, summaries, chunks string, log *slog.Logger) *SummaryRag {
	if log == nil {
		log = slog.Default()
	}
	return &SummaryRag{embedder: embedder, store: store, summaries: summaries, chunks: chunks, log: log}
}

func (r *SummaryRag) Name() string { return "summary_rag" }

func (r *SummaryRag) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	hits, err := search(ctx, r.Name(), r.embedder, r.store, r.summaries, query, topK)
	if err != nil || hits == nil {
		return nil, err
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Payload.ChunkID
	}
	records, err := r.store.Fetch(ctx, r.chunks, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: resolve chunks in %s: %v", domain.ErrRetrieval, r.Name(), r.chunks, err)
	}
	byID := make(map[string]domain.Payload, len(records))
	for _, rec := range records {
		byID[rec.Payload.ChunkID] = rec.Payload
	}

	out := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		payload, ok := byID[h.Payload.ChunkID]
		if !ok {
			r.log.Warn("summary hit has no source chunk, returning summary text",
				"chunk", h.Payload.ChunkID, "collection", r.chunks)
			payload = h.Payload
		}
		out = append(out, domain.ScoredChunk{Chunk: domain.ChunkFromPayload(payload), Score: h.Score})
	}
	return out, nil
}
