package encoder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// Encoder embeds chunks and persists them into a vector store collection.
// Encoding replaces the collection wholesale: the collection is recreated
// before the upsert, and chunk IDs are deterministic, so re-encoding the
// same corpus leaves the store in an identical state.
type Encoder struct {
	embedder domain.Embedder
	store    domain.Store
	log      *slog.Logger
}

func NewEncoder(embedder domain.Embedder, store domain.Store, log *slog.Logger) *Encoder {
	if log == nil {
		log = slog.Default()
	}
	return &Encoder{embedder: embedder, store: store, log: log}
}

// Encode writes one record per chunk into the collection, embedding each
// chunk's text. Returns the number of records written. Any embedding
// failure, dimensionality mismatch or store failure aborts the run with
// ErrEncoding.
func (e *Encoder) Encode(ctx context.Context, collection string, chunks []domain.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: embed %d chunks for %s: %v", domain.ErrEncoding, len(chunks), collection, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEncoding, len(vectors), len(chunks))
	}

	dimension := e.embedder.Dimension()
	records := make([]domain.Record, len(chunks))
	for i, c := range chunks {
		// The store would also reject this, but the invariant belongs to
		// the write path: fail before touching persistent state.
		if len(vectors[i]) != dimension {
			return 0, fmt.Errorf("%w: chunk %s embedded to %d dimensions, collection %s expects %d",
				domain.ErrEncoding, c.ID, len(vectors[i]), collection, dimension)
		}
		records[i] = domain.Record{
			ID:     c.ID,
			Vector: vectors[i],
			Payload: domain.Payload{
				Text:    c.Text,
				Summary: c.Summary,
				ChunkID: c.ID,
				Source:  c.Source,
			},
		}
	}

	if err := e.store.DeleteCollection(ctx, collection); err != nil {
		return 0, fmt.Errorf("%w: drop collection %s: %v", domain.ErrEncoding, collection, err)
	}
	if err := e.store.EnsureCollection(ctx, collection, dimension); err != nil {
		return 0, fmt.Errorf("%w: create collection %s: %v", domain.ErrEncoding, collection, err)
	}
	if len(records) == 0 {
		e.log.Warn("nothing to encode", "collection", collection)
		return 0, nil
	}
	if err := e.store.Upsert(ctx, collection, records); err != nil {
		return 0, fmt.Errorf("%w: upsert %d records into %s: %v", domain.ErrEncoding, len(records), collection, err)
	}
	e.log.Info("encoded collection", "collection", collection, "records", len(records), "model", e.embedder.Model())
	return len(records), nil
}
