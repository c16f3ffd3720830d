package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// Judgement carries the two quality metrics the judge scores, both in
// [0, 1].
type Judgement struct {
	ContextRelevance float64 `json:"context_relevance"`
	Faithfulness     float64 `json:"faithfulness"`
}

// Judge scores one (query, context, answer, reference) tuple.
type Judge interface {
	Judge(ctx context.Context, query string, contexts []string, answer, reference string) (Judgement, error)
}

const judgePrompt = "You grade retrieval-augmented answers. Score two metrics from 0.0 to 1.0:\n" +
	"- context_relevance: how relevant the retrieved passages are to the question.\n" +
	"- faithfulness: how well the answer is supported by the passages and agrees with the reference answer.\n" +
	"Reply with only a JSON object like {\"context_relevance\": 0.8, \"faithfulness\": 0.9}."

// LLMJudge scores cases through a chat completion that returns JSON.
type LLMJudge struct {
	completer domain.Completer
}

func NewLLMJudge(completer domain.Completer) *LLMJudge {
	return &LLMJudge{completer: completer}
}

func (j *LLMJudge) Judge(ctx context.Context, query string, contexts []string, answer, reference string) (Judgement, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nRetrieved passages:\n", query)
	if len(contexts) == 0 {
		b.WriteString("(none)\n")
	}
	for i, c := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(c))
	}
	fmt.Fprintf(&b, "\nGenerated answer: %s\n\nReference answer: %s", answer, reference)

	reply, err := j.completer.Complete(ctx, judgePrompt, b.String())
	if err != nil {
		return Judgement{}, fmt.Errorf("judge completion: %w", err)
	}
	return parseJudgement(reply)
}

// parseJudgement extracts the scores from the model's reply, tolerating a
// markdown code fence around the JSON. Scores outside [0, 1] are clamped.
func parseJudgement(reply string) (Judgement, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var j Judgement
	if err := json.Unmarshal([]byte(cleaned), &j); err != nil {
		return Judgement{}, fmt.Errorf("judge returned unparseable scores %q: %w", reply, err)
	}
	j.ContextRelevance = clamp01(j.ContextRelevance)
	j.Faithfulness = clamp01(j.Faithfulness)
	return j, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
