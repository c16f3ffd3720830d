// Package chat turns a user query into a grounded answer: it fans out to
// the configured retrievers, merges their results, and makes exactly one
// completion call with the retrieved context.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// DefaultSystemPrompt grounds answers in the retrieved diary passages.
const DefaultSystemPrompt = "You are a personal diary assistant. Answer the question " +
	"using only the diary passages provided as context. If the context does not " +
	"contain the answer, say so instead of guessing."

// MentisSystemPrompt is the persona of the focused assistant, which reads
// only the main collection.
const MentisSystemPrompt = "You are Mentis, a thoughtful companion who knows the " +
	"author's diary. Answer from the provided passages, reference what the author " +
	"actually wrote, and be honest when the diary does not say."

// Orchestrator answers queries over a fixed set of retrievers. The slice
// order is the priority order used to break score ties during merging.
type Orchestrator struct {
	retrievers []domain.Retriever
	completer  domain.Completer
	topK       int
	system     string
	log        *slog.Logger
}

func NewOrchestrator(retrievers []domain.Retriever, completer domain.Completer, topK int, system string, log *slog.Logger) *Orchestrator {
	if system == "" {
		system = DefaultSystemPrompt
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		retrievers: retrievers,
		completer:  completer,
		topK:       topK,
		system:     system,
		log:        log,
	}
}

// Answer retrieves context for the query and generates one completion.
// Individual retriever failures are tolerated as long as at least one
// retriever returns; a failed completion is a generation error for this
// turn only.
func (o *Orchestrator) Answer(ctx context.Context, query string) (string, error) {
	merged, err := o.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	answer, err := o.completer.Complete(ctx, o.system, buildPrompt(query, merged))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	return strings.TrimSpace(answer), nil
}

// Retrieve fans out the query to every retriever concurrently and merges
// the results. The merge unions chunks by ID keeping the highest score,
// orders by descending score, and breaks ties by retriever priority.
func (o *Orchestrator) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	results := make([][]domain.ScoredChunk, len(o.retrievers))
	errs := make([]error, len(o.retrievers))

	var wg sync.WaitGroup
	for i, r := range o.retrievers {
		wg.Add(1)
		go func(i int, r domain.Retriever) {
			defer wg.Done()
			results[i], errs[i] = r.Retrieve(ctx, query, o.topK)
		}(i, r)
	}
	wg.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			o.log.Warn("retriever failed", "retriever", o.retrievers[i].Name(), "error", err)
		}
	}
	if failed == len(o.retrievers) {
		return nil, fmt.Errorf("%w: all %d retrievers failed, first error: %v", domain.ErrRetrieval, failed, firstErr(errs))
	}
	return merge(results), nil
}

// merge unions per-retriever results by chunk ID. A chunk seen by several
// retrievers keeps its highest score and the priority of the first
// retriever that saw it.
func merge(results [][]domain.ScoredChunk) []domain.ScoredChunk {
	type entry struct {
		chunk    domain.Chunk
		score    float32
		priority int
	}
	byID := map[string]*entry{}
	var order []*entry
	for priority, list := range results {
		for _, sc := range list {
			if e, ok := byID[sc.Chunk.ID]; ok {
				if sc.Score > e.score {
					e.score = sc.Score
				}
				continue
			}
			e := &entry{chunk: sc.Chunk, score: sc.Score, priority: priority}
			byID[sc.Chunk.ID] = e
			order = append(order, e)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].priority < order[j].priority
	})
	merged := make([]domain.ScoredChunk, len(order))
	for i, e := range order {
		merged[i] = domain.ScoredChunk{Chunk: e.chunk, Score: e.score}
	}
	return merged
}

func buildPrompt(query string, context []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Diary passages:\n")
	if len(context) == 0 {
		b.WriteString("(none retrieved)\n")
	}
	for i, sc := range context {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(sc.Chunk.Text))
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

func firstErr(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
