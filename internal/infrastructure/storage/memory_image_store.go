package storage

import (
	"context"
	"slices"
	"sync"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/port"
)

// MemoryImageStore in-memory хранилище изображений
type MemoryImageStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryImageStore создаёт пустое in-memory хранилище
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{
		objects: make(map[string][]byte),
	}
}

// Get возвращает копию объекта
func (s *MemoryImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	data, exists := s.objects[key]
	s.mu.RUnlock()

	if !exists {
		return nil, apperr.Newf(apperr.KindNotFound, "object %q not found", key)
	}
	return slices.Clone(data), nil
}

// Put сохраняет копию объекта
func (s *MemoryImageStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.objects[key] = slices.Clone(data)
	s.mu.Unlock()

	return nil
}

// Keys возвращает отсортированный список ключей
func (s *MemoryImageStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Проверка реализации интерфейса
var _ port.ImageStore = (*MemoryImageStore)(nil)
