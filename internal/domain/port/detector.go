package port

import (
	"context"

	"yolo-bot/internal/domain/entity"
)

// DetectionBackend интерфейс детектора объектов
type DetectionBackend interface {
	// Infer запускает распознавание. Весь вывод складывается в каталог namespace,
	// чтобы параллельные запросы не пересекались.
	Infer(ctx context.Context, image entity.SourceImage, namespace string) (*entity.DetectionArtifacts, error)
}

// HealthChecker проверяет доступность внешней зависимости
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}
