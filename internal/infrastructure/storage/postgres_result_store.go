package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

const createPredictionsTable = `
CREATE TABLE IF NOT EXISTS prediction_summaries (
	id                 BIGSERIAL PRIMARY KEY,
	prediction_id      UUID        NOT NULL UNIQUE,
	original_img_path  TEXT        NOT NULL,
	predicted_img_path TEXT        NOT NULL,
	labels             JSONB       NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL
)`

const insertPrediction = `
INSERT INTO prediction_summaries (prediction_id, original_img_path, predicted_img_path, labels, created_at)
VALUES (@prediction_id, @original, @predicted, @labels, @created_at)
RETURNING id`

// PostgresResultStore хранит сводки в PostgreSQL, метки лежат в jsonb
type PostgresResultStore struct {
	pool *pgxpool.Pool
}

// NewPostgresResultStore открывает пул соединений и создаёт таблицу, если её нет.
func NewPostgresResultStore(ctx context.Context, dsn string) (*PostgresResultStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, createPredictionsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresResultStore{pool: pool}, nil
}

// Insert сохраняет сводку и возвращает номер строки
func (s *PostgresResultStore) Insert(ctx context.Context, summary *entity.PredictionSummary) (string, error) {
	labels := summary.Labels
	if labels == nil {
		labels = []entity.DetectionLabel{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, insertPrediction, pgx.NamedArgs{
		"prediction_id": summary.PredictionID,
		"original":      summary.OriginalKey,
		"predicted":     summary.AnnotatedKey,
		"labels":        labelsJSON,
		"created_at":    summary.CreatedAt,
	}).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("postgres insert: %w", err)
	}
	return fmt.Sprint(id), nil
}

// Close закрывает пул
func (s *PostgresResultStore) Close() {
	s.pool.Close()
}

// Проверка реализации интерфейса
var _ port.ResultStore = (*PostgresResultStore)(nil)
