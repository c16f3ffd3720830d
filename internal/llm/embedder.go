package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// embedBatchSize caps how many texts go into a single embeddings request.
const embedBatchSize = 64

// Embedder produces embedding vectors through the OpenAI embeddings API.
// It validates that every returned vector has the dimensionality the
// collection was created with.
type Embedder struct {
	client  *openai.Client
	model   string
	dim     int
	timeout time.Duration
}

func NewEmbedder(client *openai.Client, model string, dimension int, timeout time.Duration) *Embedder {
	return &Embedder{
		client:  client,
		model:   model,
		dim:     dimension,
		timeout: timeout,
	}
}

// Model returns the embedding model identifier.
func (e *Embedder) Model() string { return e.model }

// Dimension returns the dimensionality of the produced vectors.
func (e *Embedder) Dimension() int { return e.dim }

// Embed returns one vector per input text, in input order. Inputs are sent
// in batches so large corpora do not exceed request limits.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: batch,
	})
	if err != nil {
		return nil, wrapTimeout(ctx, fmt.Errorf("embeddings request: %w", err))
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), len(batch))
	}
	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j := range d.Embedding {
			vec[j] = float32(d.Embedding[j])
		}
		if e.dim > 0 && len(vec) != e.dim {
			return nil, fmt.Errorf("model %s returned a %d-dimensional vector, expected %d", e.model, len(vec), e.dim)
		}
		vecs[i] = vec
	}
	return vecs, nil
}
