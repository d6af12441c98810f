package storage

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// MemoryResultStore in-memory хранилище сводок
type MemoryResultStore struct {
	mu        sync.RWMutex
	seq       int
	summaries []entity.PredictionSummary
}

// NewMemoryResultStore создаёт пустое хранилище сводок
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{}
}

// Insert сохраняет копию сводки и выдаёт ей порядковый номер
func (s *MemoryResultStore) Insert(ctx context.Context, summary *entity.PredictionSummary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := strconv.Itoa(s.seq)

	stored := *summary
	stored.ID = id
	stored.Labels = slices.Clone(summary.Labels)
	s.summaries = append(s.summaries, stored)

	return id, nil
}

// All возвращает сохранённые сводки в порядке записи
func (s *MemoryResultStore) All() []entity.PredictionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.summaries)
}

// Проверка реализации интерфейса
var _ port.ResultStore = (*MemoryResultStore)(nil)
