package chunker

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// SentenceChunker splits text into sentence-based chunks with overlap,
// recording the line range of the source document each chunk spans.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// ChunkID derives a stable identifier for the chunk at the given index of
// the document at path. Re-encoding the same corpus yields the same IDs,
// which keeps encoding idempotent and lets retrievers that share a corpus
// deduplicate against each other.
func ChunkID(path string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(path+"#"+strconv.Itoa(index))).String()
}

// span is a sentence with its byte offsets into the original document.
type span struct {
	text  string
	start int
	end   int
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	spans := c.sentenceSpans(document.Content)
	if len(spans) == 0 {
		return nil, nil
	}
	lines := lineOffsets(document.Content)
	var chunks []domain.Chunk
	i := 0
	idx := 0
	for i < len(spans) {
		end := i + c.sentencesPerChunk
		if end > len(spans) {
			end = len(spans)
		}
		parts := make([]string, 0, end-i)
		for _, s := range spans[i:end] {
			parts = append(parts, s.text)
		}
		chunks = append(chunks, domain.Chunk{
			ID:   ChunkID(document.Path, idx),
			Text: strings.Join(parts, " "),
			Source: domain.SourceRef{
				Path:      document.Path,
				StartLine: lineAt(lines, spans[i].start),
				EndLine:   lineAt(lines, spans[end-1].end-1),
			},
		})
		if end == len(spans) {
			break
		}
		i = end - c.overlapSentences
		idx++
	}
	return chunks, nil
}

func (c *SentenceChunker) sentenceSpans(content string) []span {
	locs := c.splitter.FindAllStringIndex(content, -1)
	spans := make([]span, 0, len(locs))
	for _, loc := range locs {
		raw := content[loc[0]:loc[1]]
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		lead := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		spans = append(spans, span{text: text, start: loc[0] + lead, end: loc[1]})
	}
	if len(spans) == 0 {
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return nil
		}
		spans = append(spans, span{text: trimmed, start: 0, end: len(content)})
	}
	return spans
}

// lineOffsets returns the byte offset at which each line of content begins.
func lineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' && i+1 < len(content) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineAt maps a byte offset to a 1-based line number.
func lineAt(offsets []int, pos int) int {
	if pos < 0 {
		pos = 0
	}
	return sort.SearchInts(offsets, pos+1)
}
