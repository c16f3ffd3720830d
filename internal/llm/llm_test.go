package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// newEmbeddingsServer serves the OpenAI embeddings endpoint, returning one
// dim-sized vector per input whose first component encodes the input index.
func newEmbeddingsServer(dim int, requests *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		if requests != nil {
			*requests++
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type datum struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]datum, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(i + 1)
			data[i] = datum{Object: "embedding", Index: i, Embedding: vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
}

func TestEmbedderReturnsVectorsInOrder(t *testing.T) {
	var requests int
	srv := newEmbeddingsServer(3, &requests)
	defer srv.Close()

	e := NewEmbedder(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "text-embedding-3-small", 3, time.Second)

	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(2), vecs[1][0])
	assert.Equal(t, 1, requests)
}

func TestEmbedderEmptyInput(t *testing.T) {
	var requests int
	srv := newEmbeddingsServer(3, &requests)
	defer srv.Close()

	e := NewEmbedder(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "text-embedding-3-small", 3, time.Second)

	vecs, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Equal(t, 0, requests)
}

func TestEmbedderBatchesLargeInputs(t *testing.T) {
	var requests int
	srv := newEmbeddingsServer(3, &requests)
	defer srv.Close()

	e := NewEmbedder(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "text-embedding-3-small", 3, time.Second)

	texts := make([]string, embedBatchSize+1)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	vecs, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, embedBatchSize+1)
	assert.Equal(t, 2, requests)
}

func TestEmbedderRejectsDimensionMismatch(t *testing.T) {
	srv := newEmbeddingsServer(3, nil)
	defer srv.Close()

	e := NewEmbedder(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "text-embedding-3-small", 5, time.Second)

	_, err := e.Embed(context.Background(), []string{"first"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5")
	assert.False(t, errors.Is(err, domain.ErrTimeout))
}

func TestEmbedderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	e := NewEmbedder(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "text-embedding-3-small", 3, 10*time.Millisecond)

	_, err := e.Embed(context.Background(), []string{"first"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
}

func TestCompleterSendsSystemAndUserMessages(t *testing.T) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	var got struct {
		Model    string    `json:"model"`
		Messages []message `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   got.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": "The sky is blue."}, "finish_reason": "stop"}},
		})
	}))
	defer srv.Close()

	c := NewCompleter(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "gpt-4o", time.Second)

	answer, err := c.Complete(context.Background(), "You are helpful.", "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", answer)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are helpful.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "gpt-4o", got.Model)
}

func TestCompleterOmitsEmptySystemPrompt(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []json.RawMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		count = len(req.Messages)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := NewCompleter(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "gpt-4o", time.Second)

	_, err := c.Complete(context.Background(), "", "question")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCompleterNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewCompleter(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "gpt-4o", time.Second)

	_, err := c.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompleterTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewCompleter(NewClient(Config{APIKey: "test", BaseURL: srv.URL}), "gpt-4o", 10*time.Millisecond)

	_, err := c.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
}
