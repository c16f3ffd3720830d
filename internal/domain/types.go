package domain

import "time"

// Document represents a single corpus file loaded into the system.
type Document struct {
	Path    string
	Content string
}

// SourceRef locates a chunk inside the original corpus file.
type SourceRef struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Chunk is the unit of retrievable text. Chunks are immutable once encoded;
// re-encoding a corpus recreates them wholesale.
type Chunk struct {
	ID      string
	Text    string
	Summary string
	Source  SourceRef
}

// Payload is the metadata persisted alongside a vector in the store.
// The same shape serves as the qdrant point payload and the pgvector
// jsonb column.
type Payload struct {
	Text    string    `json:"text"`
	Summary string    `json:"summary,omitempty"`
	ChunkID string    `json:"chunk_id"`
	Source  SourceRef `json:"source"`
}

// Record is the persisted form of a chunk in a vector store collection.
type Record struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Hit is a raw nearest-neighbour match returned by a vector store query,
// ordered by descending similarity.
type Hit struct {
	ID      string
	Score   float32
	Payload Payload
}

// ScoredChunk pairs a retrieved chunk with its relevance score.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// ChunkFromPayload rebuilds the retrievable chunk carried by a stored payload.
func ChunkFromPayload(p Payload) Chunk {
	return Chunk{
		ID:      p.ChunkID,
		Text:    p.Text,
		Summary: p.Summary,
		Source:  p.Source,
	}
}

// EvalCase is one (query, reference answer) pair from the fixed evaluation
// set. Read-only input to the evaluator.
type EvalCase struct {
	ID        string `yaml:"id" json:"id"`
	Query     string `yaml:"query" json:"query"`
	Reference string `yaml:"reference" json:"reference"`
}

// CaseResult is the scored outcome of one evaluation case against one
// retriever.
type CaseResult struct {
	CaseID           string   `json:"case_id"`
	Query            string   `json:"query"`
	Contexts         []string `json:"contexts"`
	Answer           string   `json:"answer"`
	Reference        string   `json:"reference"`
	ContextRelevance float64  `json:"context_relevance"`
	Faithfulness     float64  `json:"faithfulness"`
}

// RetrieverReport aggregates the evaluation of a single retriever: the
// per-case results that scored successfully, how many cases failed, and the
// arithmetic mean of each metric over the successful cases.
type RetrieverReport struct {
	Retriever            string       `json:"retriever"`
	Cases                []CaseResult `json:"cases"`
	Failures             int          `json:"failures"`
	MeanContextRelevance float64      `json:"mean_context_relevance"`
	MeanFaithfulness     float64      `json:"mean_faithfulness"`
}

// Report is the artifact of one evaluation run, written once per run and
// never mutated afterwards.
type Report struct {
	RunID      string            `json:"run_id"`
	CreatedAt  time.Time         `json:"created_at"`
	CaseSet    string            `json:"case_set"`
	TopK       int               `json:"top_k"`
	Retrievers []RetrieverReport `json:"retrievers"`
}
