package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

const answerPrompt = "You are a personal diary assistant. Answer the question using only " +
	"the diary passages provided as context. If the context does not contain the " +
	"answer, say so instead of guessing."

// Evaluator runs every case against every retriever, generates an answer
// per case, and delegates scoring to the judge. A failure anywhere in one
// case (retrieval, generation or judging) skips that case and is counted;
// the run only fails when no case scored at all.
type Evaluator struct {
	retrievers []domain.Retriever
	completer  domain.Completer
	judge      Judge
	topK       int
	log        *slog.Logger
}

func NewEvaluator(retrievers []domain.Retriever, completer domain.Completer, judge Judge, topK int, log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{
		retrievers: retrievers,
		completer:  completer,
		judge:      judge,
		topK:       topK,
		log:        log,
	}
}

// Run evaluates the case set and returns the report. The report is not yet
// persisted; WriteReport does that.
func (e *Evaluator) Run(ctx context.Context, set *CaseSet) (*domain.Report, error) {
	report := &domain.Report{
		RunID:     time.Now().UTC().Format("20060102T150405Z"),
		CreatedAt: time.Now().UTC(),
		CaseSet:   set.Name,
		TopK:      e.topK,
	}

	scored := 0
	for _, r := range e.retrievers {
		rr := domain.RetrieverReport{Retriever: r.Name()}
		for _, c := range set.Cases {
			result, err := e.runCase(ctx, r, c)
			if err != nil {
				rr.Failures++
				e.log.Warn("evaluation case failed", "retriever", r.Name(), "case", c.ID, "error", err)
				continue
			}
			rr.Cases = append(rr.Cases, result)
		}
		for _, cr := range rr.Cases {
			rr.MeanContextRelevance += cr.ContextRelevance
			rr.MeanFaithfulness += cr.Faithfulness
		}
		if n := float64(len(rr.Cases)); n > 0 {
			rr.MeanContextRelevance /= n
			rr.MeanFaithfulness /= n
		}
		scored += len(rr.Cases)
		report.Retrievers = append(report.Retrievers, rr)
	}

	if scored == 0 {
		return nil, fmt.Errorf("%w: no case scored successfully across %d retrievers and %d cases",
			domain.ErrEvaluation, len(e.retrievers), len(set.Cases))
	}
	return report, nil
}

func (e *Evaluator) runCase(ctx context.Context, r domain.Retriever, c domain.EvalCase) (domain.CaseResult, error) {
	retrieved, err := r.Retrieve(ctx, c.Query, e.topK)
	if err != nil {
		return domain.CaseResult{}, fmt.Errorf("%w: retrieve: %v", domain.ErrEvaluation, err)
	}
	contexts := make([]string, len(retrieved))
	for i, sc := range retrieved {
		contexts[i] = sc.Chunk.Text
	}

	answer, err := e.completer.Complete(ctx, answerPrompt, casePrompt(c.Query, contexts))
	if err != nil {
		return domain.CaseResult{}, fmt.Errorf("%w: generate answer: %v", domain.ErrEvaluation, err)
	}

	judgement, err := e.judge.Judge(ctx, c.Query, contexts, answer, c.Reference)
	if err != nil {
		return domain.CaseResult{}, fmt.Errorf("%w: judge: %v", domain.ErrEvaluation, err)
	}

	return domain.CaseResult{
		CaseID:           c.ID,
		Query:            c.Query,
		Contexts:         contexts,
		Answer:           strings.TrimSpace(answer),
		Reference:        c.Reference,
		ContextRelevance: judgement.ContextRelevance,
		Faithfulness:     judgement.Faithfulness,
	}, nil
}

func casePrompt(query string, contexts []string) string {
	var b strings.Builder
	b.WriteString("Diary passages:\n")
	if len(contexts) == 0 {
		b.WriteString("(none retrieved)\n")
	}
	for i, c := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(c))
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}
