package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// WriteReport serializes the report to <dir>/results_<runID>.json and
// returns the path. The artifact is written once and never mutated.
func WriteReport(dir string, report *domain.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("results_%s.json", report.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}

var (
	summaryTitleStyle  = lipgloss.NewStyle().Bold(true)
	summaryHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	summaryFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// RenderSummary formats the per-retriever means as a terminal table.
func RenderSummary(report *domain.Report) string {
	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render(fmt.Sprintf("Evaluation run %s (%s, top_k=%d)", report.RunID, report.CaseSet, report.TopK)))
	b.WriteString("\n\n")
	b.WriteString(summaryHeaderStyle.Render(fmt.Sprintf("%-14s %8s %10s %14s %10s", "retriever", "cases", "failures", "relevance", "faithful")))
	b.WriteString("\n")
	for _, rr := range report.Retrievers {
		line := fmt.Sprintf("%-14s %8d %10d %14.3f %10.3f",
			rr.Retriever, len(rr.Cases), rr.Failures, rr.MeanContextRelevance, rr.MeanFaithfulness)
		if rr.Failures > 0 {
			line = summaryFailStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
