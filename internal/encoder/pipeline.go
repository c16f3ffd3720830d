package encoder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// Collections names the collections the encode pipelines populate.
type Collections struct {
	Chunks    string
	Summaries string
	Main      string
}

// Stats reports how many records an encode run wrote per collection.
type Stats struct {
	Chunks    int
	Summaries int
}

// Pipeline drives the two encode paths over a corpus document. EncodeRags
// fills the chunk and summary collections used by SimpleRag and SummaryRag;
// EncodeMain fills the main collection with its own embedding model.
type Pipeline struct {
	chunker      domain.Chunker
	summarizer   domain.Summarizer
	rags         *Encoder
	main         *Encoder
	collections  Collections
	maxSentences int
	log          *slog.Logger
}

func NewPipeline(chunker domain.Chunker, summarizer domain.Summarizer, rags, main *Encoder, collections Collections, maxSentences int, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		chunker:      chunker,
		summarizer:   summarizer,
		rags:         rags,
		main:         main,
		collections:  collections,
		maxSentences: maxSentences,
		log:          log,
	}
}

// EncodeRags chunks the document, summarizes each chunk, and writes the
// chunk and summary collections. Summary records reuse their chunk's ID and
// carry it in the payload, which is how SummaryRag finds its way back to
// the full chunk at query time.
func (p *Pipeline) EncodeRags(ctx context.Context, doc domain.Document) (Stats, error) {
	chunks, err := p.chunker.Chunk(doc)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: chunk %s: %v", domain.ErrEncoding, doc.Path, err)
	}
	for i := range chunks {
		summary, err := p.summarizer.Summarize(ctx, chunks[i].Text, p.maxSentences)
		if err != nil {
			return Stats{}, fmt.Errorf("%w: summarize chunk %s: %v", domain.ErrEncoding, chunks[i].ID, err)
		}
		chunks[i].Summary = strings.TrimSpace(summary)
	}

	var stats Stats
	if stats.Chunks, err = p.rags.Encode(ctx, p.collections.Chunks, chunks); err != nil {
		return stats, err
	}

	summaries := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Summary == "" {
			p.log.Warn("chunk produced no summary", "chunk", c.ID)
			continue
		}
		summaries = append(summaries, domain.Chunk{ID: c.ID, Text: c.Summary, Source: c.Source})
	}
	if stats.Summaries, err = p.rags.Encode(ctx, p.collections.Summaries, summaries); err != nil {
		return stats, err
	}
	return stats, nil
}

// EncodeMain chunks the document and writes the main collection through the
// primary encoder.
func (p *Pipeline) EncodeMain(ctx context.Context, doc domain.Document) (int, error) {
	chunks, err := p.chunker.Chunk(doc)
	if err != nil {
		return 0, fmt.Errorf("%w: chunk %s: %v", domain.ErrEncoding, doc.Path, err)
	}
	return p.main.Encode(ctx, p.collections.Main, chunks)
}
