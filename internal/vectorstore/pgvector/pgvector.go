package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/domain"
)

// Store persists vectors in Postgres with the pgvector extension. Each
// collection maps to its own table <prefix><collection> holding the record
// ID, the embedding and the payload as jsonb. Searches are exact scans with
// cosine distance, which is plenty for a personal corpus.
type Store struct {
	db     *sql.DB
	prefix string
}

var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewStore opens a connection pool against the given database URL. The
// pgvector extension is created lazily when the first collection is
// ensured.
func NewStore(databaseURL, tablePrefix string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, prefix: tablePrefix}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d for collection %s", dimension, collection)
	}
	table, err := s.tableName(collection)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return s.wrapErr(ctx, fmt.Errorf("create vector extension: %w", err))
	}
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (id uuid PRIMARY KEY, embedding vector(%d) NOT NULL, payload jsonb NOT NULL)`,
		table, dimension,
	)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return s.wrapErr(ctx, fmt.Errorf("create table %s: %w", table, err))
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	table, err := s.tableName(collection)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return s.wrapErr(ctx, fmt.Errorf("drop table %s: %w", table, err))
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, collection string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	table, err := s.tableName(collection)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrapErr(ctx, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, embedding, payload) VALUES ($1, $2::vector, $3::jsonb)
		 ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload`,
		table,
	))
	if err != nil {
		return s.wrapErr(ctx, fmt.Errorf("prepare upsert: %w", err))
	}
	defer stmt.Close()

	for _, r := range records {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, vectorToString(r.Vector), payload); err != nil {
			return s.wrapErr(ctx, fmt.Errorf("upsert record %s: %w", r.ID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return s.wrapErr(ctx, fmt.Errorf("commit upsert: %w", err))
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	table, err := s.tableName(collection)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		`SELECT id, payload, 1 - (embedding <=> $1::vector) AS score
		 FROM %s ORDER BY embedding <=> $1::vector LIMIT $2`,
		table,
	)
	rows, err := s.db.QueryContext(ctx, query, vectorToString(vector), topK)
	if err != nil {
		return nil, s.wrapErr(ctx, fmt.Errorf("search %s: %w", table, err))
	}
	defer rows.Close()

	var hits []domain.Hit
	for rows.Next() {
		var (
			hit     domain.Hit
			payload []byte
		)
		if err := rows.Scan(&hit.ID, &payload, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		if err := json.Unmarshal(payload, &hit.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload for %s: %w", hit.ID, err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *Store) Fetch(ctx context.Context, collection string, ids []string) ([]domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	table, err := s.tableName(collection)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, embedding::text, payload FROM %s WHERE id = ANY($1)`, table)
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, s.wrapErr(ctx, fmt.Errorf("fetch from %s: %w", table, err))
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var (
			r         domain.Record
			embedding string
			payload   []byte
		)
		if err := rows.Scan(&r.ID, &embedding, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if r.Vector, err = vectorFromString(embedding); err != nil {
			return nil, fmt.Errorf("parse embedding for %s: %w", r.ID, err)
		}
		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload for %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// tableName maps a collection to its table, rejecting names that cannot be
// interpolated into DDL safely.
func (s *Store) tableName(collection string) (string, error) {
	name := s.prefix + collection
	if !collectionPattern.MatchString(name) {
		return "", fmt.Errorf("invalid collection name %q", collection)
	}
	return name, nil
}

func (s *Store) wrapErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}

// vectorToString renders a vector in pgvector input format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func vectorFromString(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	v := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		v[i] = float32(f)
	}
	return v, nil
}
