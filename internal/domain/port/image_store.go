package port

import "context"

// ImageStore интерфейс объектного хранилища изображений
type ImageStore interface {
	// Get возвращает содержимое объекта. При отсутствии ключа ошибка apperr.KindNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put сохраняет объект целиком
	Put(ctx context.Context, key string, data []byte) error
}
