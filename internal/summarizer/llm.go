package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

const llmSummaryPrompt = "You summarize diary passages. Reply with only the summary, no preamble."

// LLMSummarizer produces abstractive summaries through a chat completion.
// Slower and costlier than the frequency summarizer, but better at
// compressing rambling diary entries.
type LLMSummarizer struct {
	completer domain.Completer
}

func NewLLMSummarizer(completer domain.Completer) *LLMSummarizer {
	return &LLMSummarizer{completer: completer}
}

// Summarize asks the model for a summary of at most maxSentences sentences.
func (s *LLMSummarizer) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 2
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", nil
	}
	user := fmt.Sprintf("Summarize the following passage in at most %d sentences:\n\n%s", maxSentences, trimmed)
	summary, err := s.completer.Complete(ctx, llmSummaryPrompt, user)
	if err != nil {
		return "", fmt.Errorf("llm summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
