package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const metadataSchema = `
CREATE TABLE IF NOT EXISTS video_metadata (
	id TEXT PRIMARY KEY,
	uploaded_at TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL
)`

// PostgresStore persists video metadata in Postgres so it survives restarts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, metadataSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure metadata schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, meta VideoMeta) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO video_metadata (id, uploaded_at, status) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		meta.ID, meta.UploadedAt, meta.Status)
	if err != nil {
		return fmt.Errorf("failed to insert video metadata: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if n == 0 {
		return ErrMetaExists
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*VideoMeta, error) {
	var meta VideoMeta
	err := s.db.QueryRowContext(ctx,
		`SELECT id, uploaded_at, status FROM video_metadata WHERE id = $1`, id).
		Scan(&meta.ID, &meta.UploadedAt, &meta.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMetaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query video metadata: %w", err)
	}
	return &meta, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]VideoMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, uploaded_at, status FROM video_metadata ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list video metadata: %w", err)
	}
	defer rows.Close()

	var out []VideoMeta
	for rows.Next() {
		var meta VideoMeta
		if err := rows.Scan(&meta.ID, &meta.UploadedAt, &meta.Status); err != nil {
			return nil, fmt.Errorf("failed to scan video metadata: %w", err)
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate video metadata: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE video_metadata SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update video status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return ErrMetaNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM video_metadata WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video metadata: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return ErrMetaNotFound
	}
	return nil
}
