package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// Store is a minimal REST client to Qdrant. Collections use cosine
// distance; point IDs must be UUIDs, which the chunker guarantees.
type Store struct {
	url    string
	apiKey string
	client *http.Client
}

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload domain.Payload `json:"payload"`
}

func (s *Store) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d for collection %s", dimension, collection)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant answers 409 when the collection already exists.
	err := s.do(ctx, http.MethodPut, "/collections/"+collection, body, nil, http.StatusConflict)
	if err != nil {
		return err
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	// Deleting a missing collection is not an error.
	return s.do(ctx, http.MethodDelete, "/collections/"+collection, nil, nil, http.StatusNotFound)
}

func (s *Store) Upsert(ctx context.Context, collection string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{ID: r.ID, Vector: r.Vector, Payload: r.Payload}
	}
	// wait=true blocks until the write is applied, so a query issued right
	// after the upsert sees it.
	return s.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", map[string]any{"points": points}, nil)
}

func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float32        `json:"score"`
			Payload domain.Payload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body, &resp); err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, domain.Hit{ID: r.ID, Score: r.Score, Payload: r.Payload})
	}
	return hits, nil
}

func (s *Store) Fetch(ctx context.Context, collection string, ids []string) ([]domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	body := map[string]any{
		"ids":          ids,
		"with_payload": true,
		"with_vector":  true,
	}
	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload domain.Payload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points", body, &resp); err != nil {
		return nil, err
	}
	records := make([]domain.Record, 0, len(resp.Result))
	for _, r := range resp.Result {
		records = append(records, domain.Record{ID: r.ID, Vector: r.Vector, Payload: r.Payload})
	}
	return records, nil
}

// do sends one JSON request. Responses with a status outside 2xx fail
// unless the status is listed in tolerate.
func (s *Store) do(ctx context.Context, method, path string, body, out any, tolerate ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant %s %s: marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return s.wrapErr(ctx, fmt.Errorf("qdrant %s %s: %w", method, path, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		for _, code := range tolerate {
			if resp.StatusCode == code {
				return nil
			}
		}
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(detail))
		if msg != "" {
			return fmt.Errorf("qdrant %s %s: %s: %s", method, path, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("qdrant %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// wrapErr marks request timeouts so callers can tell a slow store apart
// from a hard failure.
func (s *Store) wrapErr(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
