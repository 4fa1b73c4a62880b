package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/draftmill/draftmill/models"
)

// Store persists run records in Postgres.
type Store struct {
	DB *sql.DB
}

// NewStore opens a Postgres connection using an explicit DSN.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// CreateRun inserts a new run row. The caller supplies the run ID so that
// runs are identifiable in logs even when the archive is disabled.
func (s *Store) CreateRun(ctx context.Context, rec models.RunRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("run id required")
	}
	started := rec.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO runs (id, status, topic, started_at)
VALUES ($1,$2,$3,$4)
`, rec.ID, rec.Status, rec.Topic, started)
	return err
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, rec models.RunRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("run id required")
	}
	res, err := s.DB.ExecContext(ctx, `
UPDATE runs
SET status=$2,
    finished_at=NOW(),
    title=$3,
    slug=$4,
    output_path=$5,
    plain_len=$6,
    published_url=$7,
    error=$8
WHERE id=$1
`, rec.ID, rec.Status, nullableString(rec.Title), nullableString(rec.Slug),
		nullableString(rec.OutputPath), rec.PlainLen, nullableString(rec.PublishedURL),
		nullableString(rec.Error))
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("run %s not found", rec.ID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, status, COALESCE(topic,''), started_at, finished_at,
       COALESCE(title,''), COALESCE(slug,''), COALESCE(output_path,''),
       COALESCE(plain_len,0), COALESCE(published_url,''), COALESCE(error,'')
FROM runs
ORDER BY started_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RunRecord
	for rows.Next() {
		var rec models.RunRecord
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Status, &rec.Topic, &rec.StartedAt, &finished,
			&rec.Title, &rec.Slug, &rec.OutputPath, &rec.PlainLen, &rec.PublishedURL, &rec.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			ts := finished.Time
			rec.FinishedAt = &ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestRunTime reports when the most recent run started or finished.
// Returns nil when no runs have been recorded yet.
func (s *Store) LatestRunTime(ctx context.Context) (*time.Time, error) {
	var ts *time.Time
	err := s.DB.QueryRowContext(ctx, `SELECT MAX(COALESCE(finished_at, started_at)) FROM runs`).Scan(&ts)
	return ts, err
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func nullableString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
