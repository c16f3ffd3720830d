package domain

import "context"

// Embedder converts free text into fixed-dimensionality numeric vectors.
// Every vector an implementation returns has exactly Dimension() elements.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// Completer produces a single chat completion for a system+user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Chunker splits a document into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(doc Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxSentences int) (string, error)
}

// Retriever fetches the chunks most relevant to a query, ordered by
// descending relevance, at most topK of them. topK <= 0 means the caller
// requires nothing: the result is empty and no error is returned. For
// topK > 0, a query that yields zero candidates is an ErrRetrieval.
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, query string, topK int) ([]ScoredChunk, error)
}

// Store is the gateway to a vector database. Every operation is scoped by
// collection name; collections hold homogeneous records whose vectors all
// share the dimensionality the collection was created with.
type Store interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, collection string, dimension int) error

	// DeleteCollection drops the collection; deleting a missing collection
	// is not an error.
	DeleteCollection(ctx context.Context, collection string) error

	// Upsert writes records, replacing any with the same ID.
	Upsert(ctx context.Context, collection string, records []Record) error

	// Query returns the topK nearest records by cosine similarity,
	// ordered by descending score.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]Hit, error)

	// Fetch returns the stored records with the given IDs. Missing IDs are
	// silently skipped; the order of returned records is unspecified.
	Fetch(ctx context.Context, collection string, ids []string) ([]Record, error)
}
