package port

import (
	"context"

	"yolo-bot/internal/domain/entity"
)

// Predictor запускает распознавание изображения по ключу в хранилище
type Predictor interface {
	Predict(ctx context.Context, imageKey string) (*entity.PredictionSummary, error)
}
