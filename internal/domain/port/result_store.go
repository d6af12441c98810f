package port

import (
	"context"

	"yolo-bot/internal/domain/entity"
)

// ResultStore интерфейс хранилища сводок распознавания
type ResultStore interface {
	// Insert сохраняет сводку и возвращает идентификатор, выданный хранилищем
	Insert(ctx context.Context, summary *entity.PredictionSummary) (string, error)
}
