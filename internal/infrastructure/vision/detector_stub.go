//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// LocalDetector заглушка локального детектора (без OpenCV).
type LocalDetector struct {
	InputSize     int
	ConfThreshold float32
	IoUThreshold  float64
}

// NewLocalDetector создаёт детектор-заглушку.
func NewLocalDetector(modelPath string, classes int) (*LocalDetector, error) {
	_ = modelPath
	_ = classes
	return &LocalDetector{InputSize: 640, ConfThreshold: 0.25, IoUThreshold: 0.45}, nil
}

// Infer возвращает ошибку, если сборка без тега gocv.
func (d *LocalDetector) Infer(ctx context.Context, img entity.SourceImage, namespace string) (*entity.DetectionArtifacts, error) {
	_ = ctx
	_ = img
	_ = namespace
	return nil, apperr.New(apperr.KindRemoteService, "gocv build tag is not enabled")
}

// Close ничего не делает
func (d *LocalDetector) Close() error {
	return nil
}

var _ port.DetectionBackend = (*LocalDetector)(nil)
