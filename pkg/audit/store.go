package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storeLogPrefix = "audit:store"

// Record is one persisted invocation outcome.
type Record struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"requestId"`
	Method     string    `json:"method"`
	Transport  string    `json:"transport"`
	Status     string    `json:"status"`
	Error      *string   `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Created    time.Time `json:"created"`
}

// Store provides database access for invocation records.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert persists one invocation record.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	created := rec.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO invocations (request_id, method, transport, status, error, duration_ms, created)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.RequestID, rec.Method, rec.Transport, rec.Status, rec.Error, rec.DurationMs, created)
	if err != nil {
		return fmt.Errorf("%s - Insert failed: %w", storeLogPrefix, err)
	}
	return nil
}

// Recent returns the most recent invocation records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, request_id, method, transport, status, error, duration_ms, created
		 FROM invocations
		 ORDER BY created DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s - Recent query failed: %w", storeLogPrefix, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.RequestID, &r.Method, &r.Transport,
			&r.Status, &r.Error, &r.DurationMs, &r.Created,
		); err != nil {
			return nil, fmt.Errorf("%s - Recent scan failed: %w", storeLogPrefix, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// CountByMethod returns the number of recorded invocations per method.
func (s *Store) CountByMethod(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT method, COUNT(*)::bigint FROM invocations GROUP BY method`)
	if err != nil {
		return nil, fmt.Errorf("%s - CountByMethod query failed: %w", storeLogPrefix, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var method string
		var n int64
		if err := rows.Scan(&method, &n); err != nil {
			return nil, fmt.Errorf("%s - CountByMethod scan failed: %w", storeLogPrefix, err)
		}
		counts[method] = n
	}
	return counts, nil
}
