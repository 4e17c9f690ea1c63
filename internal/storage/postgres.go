package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivstanko/cryptoscan/internal/models"
)

// pgxQuerier is the slice of the pgx pool API the store needs. Tests
// substitute a mock pool.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore keeps the document as a single jsonb row.
type PostgresStore struct {
	db pgxQuerier
}

func NewPostgresStore(db pgxQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signal_performance (
			id INT PRIMARY KEY,
			document JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create performance table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (*models.PerformanceDocument, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT document FROM signal_performance WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.NewPerformanceDocument(), nil
		}
		return nil, fmt.Errorf("failed to read performance document: %w", err)
	}

	doc := models.NewPerformanceDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse performance document: %w", err)
	}
	if doc.Signals == nil {
		doc.Signals = make(map[string]models.SignalPerformance)
	}
	return doc, nil
}

func (s *PostgresStore) Save(ctx context.Context, doc *models.PerformanceDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize performance document: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO signal_performance (id, document, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
		data)
	if err != nil {
		return fmt.Errorf("failed to write performance document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres unavailable: %w", err)
	}
	return nil
}
