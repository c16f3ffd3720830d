package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

type stubRetriever struct {
	name     string
	failFor  map[string]bool
	retrieve func(query string) []domain.ScoredChunk
}

func (s stubRetriever) Name() string { return s.name }

func (s stubRetriever) Retrieve(_ context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if s.failFor[query] {
		return nil, fmt.Errorf("%w: store down", domain.ErrRetrieval)
	}
	if topK <= 0 {
		return nil, nil
	}
	if s.retrieve != nil {
		return s.retrieve(query), nil
	}
	return []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "c1", Text: "context for " + query}, Score: 0.9}}, nil
}

type stubCompleter struct{ err error }

func (s stubCompleter) Complete(_ context.Context, _, user string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "answer", nil
}

// scoreJudge returns fixed scores per case query.
type scoreJudge struct {
	scores  map[string]Judgement
	failFor map[string]bool
}

func (j scoreJudge) Judge(_ context.Context, query string, _ []string, _, _ string) (Judgement, error) {
	if j.failFor[query] {
		return Judgement{}, errors.New("judge backend down")
	}
	if s, ok := j.scores[query]; ok {
		return s, nil
	}
	return Judgement{ContextRelevance: 0.5, Faithfulness: 0.5}, nil
}

func caseSet(queries ...string) *CaseSet {
	set := &CaseSet{Version: 1, Name: "test-set"}
	for i, q := range queries {
		set.Cases = append(set.Cases, domain.EvalCase{
			ID:        fmt.Sprintf("case_%d", i+1),
			Query:     q,
			Reference: "reference for " + q,
		})
	}
	return set
}

func TestRunScoresEveryCase(t *testing.T) {
	e := NewEvaluator(
		[]domain.Retriever{stubRetriever{name: "simple_rag"}, stubRetriever{name: "main"}},
		stubCompleter{}, scoreJudge{}, 3, nil,
	)

	report, err := e.Run(context.Background(), caseSet("q1", "q2", "q3"))
	require.NoError(t, err)
	require.Len(t, report.Retrievers, 2)
	for _, rr := range report.Retrievers {
		assert.Len(t, rr.Cases, 3)
		assert.Equal(t, 0, rr.Failures)
	}
	assert.Equal(t, "test-set", report.CaseSet)
	assert.Equal(t, 3, report.TopK)
	assert.NotEmpty(t, report.RunID)
}

func TestRunMeanIsExactArithmeticMean(t *testing.T) {
	judge := scoreJudge{scores: map[string]Judgement{
		"q1": {ContextRelevance: 0.25, Faithfulness: 1.0},
		"q2": {ContextRelevance: 0.75, Faithfulness: 0.5},
	}}
	e := NewEvaluator([]domain.Retriever{stubRetriever{name: "simple_rag"}}, stubCompleter{}, judge, 3, nil)

	report, err := e.Run(context.Background(), caseSet("q1", "q2"))
	require.NoError(t, err)
	require.Len(t, report.Retrievers, 1)
	rr := report.Retrievers[0]
	require.Len(t, rr.Cases, 2)
	assert.Equal(t, 0.5, rr.MeanContextRelevance)
	assert.Equal(t, 0.75, rr.MeanFaithfulness)
}

func TestRunSkipsFailedCasesAndCounts(t *testing.T) {
	judge := scoreJudge{failFor: map[string]bool{"q2": true}}
	retriever := stubRetriever{name: "simple_rag", failFor: map[string]bool{"q3": true}}
	e := NewEvaluator([]domain.Retriever{retriever}, stubCompleter{}, judge, 3, nil)

	report, err := e.Run(context.Background(), caseSet("q1", "q2", "q3", "q4"))
	require.NoError(t, err)
	rr := report.Retrievers[0]
	assert.Len(t, rr.Cases, 2)
	assert.Equal(t, 2, rr.Failures)
}

func TestRunFailsWhenNothingScores(t *testing.T) {
	e := NewEvaluator(
		[]domain.Retriever{stubRetriever{name: "simple_rag"}},
		stubCompleter{err: errors.New("api down")}, scoreJudge{}, 3, nil,
	)

	_, err := e.Run(context.Background(), caseSet("q1", "q2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEvaluation))
}

func TestWriteReportArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	report := &domain.Report{
		RunID: "20260101T120000Z",
		Retrievers: []domain.RetrieverReport{
			{Retriever: "simple_rag", MeanContextRelevance: 0.5, MeanFaithfulness: 0.75},
		},
	}

	path, err := WriteReport(dir, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "results_20260101T120000Z.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back domain.Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, report.RunID, back.RunID)
	require.Len(t, back.Retrievers, 1)
	assert.Equal(t, 0.75, back.Retrievers[0].MeanFaithfulness)
}

func TestLoadCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: 1
name: diary-questions
cases:
  - id: sky
    query: What color is the sky?
    reference: The sky is blue.
  - query: At what temperature does water boil?
    reference: Water boils at 100C.
`), 0o644))

	set, err := LoadCases(path)
	require.NoError(t, err)
	assert.Equal(t, "diary-questions", set.Name)
	require.Len(t, set.Cases, 2)
	assert.Equal(t, "sky", set.Cases[0].ID)
	// Missing IDs get positional ones.
	assert.Equal(t, "case_2", set.Cases[1].ID)
}

func TestLoadCasesRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`cases:
  - query: ""
    reference: something
`), 0o644))

	_, err := LoadCases(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLoadCasesMissingFile(t *testing.T) {
	_, err := LoadCases(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestParseJudgement(t *testing.T) {
	j, err := parseJudgement(`{"context_relevance": 0.8, "faithfulness": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, Judgement{ContextRelevance: 0.8, Faithfulness: 0.9}, j)

	// Models love to wrap JSON in fences.
	j, err = parseJudgement("```json\n{\"context_relevance\": 1.5, \"faithfulness\": -0.2}\n```")
	require.NoError(t, err)
	assert.Equal(t, Judgement{ContextRelevance: 1, Faithfulness: 0}, j)

	_, err = parseJudgement("I would rate this an 8/10.")
	require.Error(t, err)
}
