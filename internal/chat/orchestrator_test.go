package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

type stubRetriever struct {
	name    string
	results []domain.ScoredChunk
	err     error
}

func (s stubRetriever) Name() string { return s.name }

func (s stubRetriever) Retrieve(_ context.Context, _ string, topK int) ([]domain.ScoredChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if topK <= 0 {
		return nil, nil
	}
	if len(s.results) > topK {
		return s.results[:topK], nil
	}
	return s.results, nil
}

type stubCompleter struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.lastSystem = system
	s.lastUser = user
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func chunk(id, text string, score float32) domain.ScoredChunk {
	return domain.ScoredChunk{Chunk: domain.Chunk{ID: id, Text: text}, Score: score}
}

func TestAnswerUsesMergedContext(t *testing.T) {
	completer := &stubCompleter{reply: "The sky is blue."}
	o := NewOrchestrator([]domain.Retriever{
		stubRetriever{name: "simple_rag", results: []domain.ScoredChunk{chunk("a", "The sky is blue.", 0.9)}},
		stubRetriever{name: "summary_rag", results: []domain.ScoredChunk{chunk("b", "Water boils at 100C.", 0.4)}},
	}, completer, 5, "", nil)

	answer, err := o.Answer(context.Background(), "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", answer)
	assert.Equal(t, DefaultSystemPrompt, completer.lastSystem)
	assert.Contains(t, completer.lastUser, "[1] The sky is blue.")
	assert.Contains(t, completer.lastUser, "[2] Water boils at 100C.")
	assert.Contains(t, completer.lastUser, "Question: What color is the sky?")
}

func TestMergeDeduplicatesByChunkID(t *testing.T) {
	o := NewOrchestrator([]domain.Retriever{
		stubRetriever{name: "simple_rag", results: []domain.ScoredChunk{chunk("a", "shared", 0.5), chunk("b", "only simple", 0.3)}},
		stubRetriever{name: "summary_rag", results: []domain.ScoredChunk{chunk("a", "shared", 0.8)}},
	}, &stubCompleter{reply: "ok"}, 5, "", nil)

	merged, err := o.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, merged, 2)
	// Chunk "a" appears once with its highest score.
	assert.Equal(t, "a", merged[0].Chunk.ID)
	assert.Equal(t, float32(0.8), merged[0].Score)
	assert.Equal(t, "b", merged[1].Chunk.ID)
}

func TestMergeBreaksTiesByRetrieverPriority(t *testing.T) {
	o := NewOrchestrator([]domain.Retriever{
		stubRetriever{name: "simple_rag", results: []domain.ScoredChunk{chunk("s", "from simple", 0.7)}},
		stubRetriever{name: "summary_rag", results: []domain.ScoredChunk{chunk("u", "from summary", 0.7)}},
		stubRetriever{name: "main", results: []domain.ScoredChunk{chunk("m", "from main", 0.7)}},
	}, &stubCompleter{reply: "ok"}, 5, "", nil)

	merged, err := o.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, "s", merged[0].Chunk.ID)
	assert.Equal(t, "u", merged[1].Chunk.ID)
	assert.Equal(t, "m", merged[2].Chunk.ID)
}

func TestMergeIsStableForFixedInput(t *testing.T) {
	retrievers := []domain.Retriever{
		stubRetriever{name: "simple_rag", results: []domain.ScoredChunk{chunk("a", "a", 0.6), chunk("b", "b", 0.6)}},
		stubRetriever{name: "summary_rag", results: []domain.ScoredChunk{chunk("c", "c", 0.6)}},
	}
	o := NewOrchestrator(retrievers, &stubCompleter{reply: "ok"}, 5, "", nil)

	first, err := o.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := o.Retrieve(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, first, again, fmt.Sprintf("run %d", i))
	}
}

func TestAnswerToleratesPartialRetrieverFailure(t *testing.T) {
	completer := &stubCompleter{reply: "grounded answer"}
	o := NewOrchestrator([]domain.Retriever{
		stubRetriever{name: "simple_rag", err: fmt.Errorf("%w: store down", domain.ErrRetrieval)},
		stubRetriever{name: "summary_rag", results: []domain.ScoredChunk{chunk("a", "still here", 0.5)}},
	}, completer, 5, "", nil)

	answer, err := o.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
	assert.Contains(t, completer.lastUser, "still here")
}

func TestAnswerFailsWhenAllRetrieversFail(t *testing.T) {
	o := NewOrchestrator([]domain.Retriever{
		stubRetriever{name: "simple_rag", err: errors.New("down")},
		stubRetriever{name: "summary_rag", err: errors.New("also down")},
	}, &stubCompleter{reply: "never"}, 5, "", nil)

	_, err := o.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRetrieval))
}

func TestAnswerWrapsCompletionFailure(t *testing.T) {
	o := NewOrchestrator([]domain.Retriever{
		stubRetriever{name: "simple_rag", results: []domain.ScoredChunk{chunk("a", "context", 0.5)}},
	}, &stubCompleter{err: errors.New("api down")}, 5, "", nil)

	_, err := o.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGeneration))
	assert.False(t, errors.Is(err, domain.ErrRetrieval))
}
