package entity

import (
	"encoding/json"
	"path"
	"strings"
	"time"
	"unicode"

	"yolo-bot/internal/domain/apperr"
)

const (
	// PhotoPrefix каталог в хранилище для исходных фото из чата
	PhotoPrefix = "photos"
	// PredictionPrefix каталог для размеченных изображений, не пересекается с PhotoPrefix
	PredictionPrefix = "predictions"

	maxImageKeyLen = 1024
)

// PredictionRequest запрос на распознавание одного изображения.
// Создаётся на каждое фото и больше не переиспользуется.
type PredictionRequest struct {
	ID       string // prediction_id, уникален для каждого запроса
	ImageKey string // ключ исходного изображения в хранилище
}

// NewPredictionRequest создаёт запрос с уже выданным идентификатором.
func NewPredictionRequest(id, imageKey string) PredictionRequest {
	return PredictionRequest{ID: id, ImageKey: imageKey}
}

// FileName имя исходного файла без каталогов
func (r PredictionRequest) FileName() string {
	return path.Base(r.ImageKey)
}

// Namespace каталог вывода детектора для этого запроса
func (r PredictionRequest) Namespace() string {
	return r.ID
}

// AnnotatedKey ключ размеченного изображения. Содержит prediction_id отдельным сегментом,
// поэтому разные запросы никогда не получат один и тот же ключ.
func (r PredictionRequest) AnnotatedKey() string {
	return path.Join(PredictionPrefix, r.ID, r.FileName())
}

// PhotoKey ключ, под которым бот сохраняет присланное фото.
func PhotoKey(fileName string) string {
	return path.Join(PhotoPrefix, path.Base(fileName))
}

// ValidateImageKey проверяет ссылку на изображение до начала обработки.
func ValidateImageKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return apperr.New(apperr.KindInput, "image key is empty")
	}
	if len(key) > maxImageKeyLen {
		return apperr.New(apperr.KindInput, "image key is too long")
	}
	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return apperr.Newf(apperr.KindInput, "image key %q must be a relative object name", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return apperr.Newf(apperr.KindInput, "image key %q contains an invalid segment", key)
		}
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return apperr.Newf(apperr.KindInput, "image key %q contains control characters", key)
	}
	return nil
}

// DetectionLabel один найденный объект. Координаты нормированы к размерам изображения.
type DetectionLabel struct {
	Class  string  `json:"class"`
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PredictionSummary итог распознавания, сохраняется в хранилище результатов
type PredictionSummary struct {
	ID           string // идентификатор, выданный хранилищем
	PredictionID string
	OriginalKey  string
	AnnotatedKey string
	Labels       []DetectionLabel // в порядке выдачи детектора
	CreatedAt    time.Time
}

type summaryJSON struct {
	ID           string           `json:"_id,omitempty"`
	PredictionID string           `json:"prediction_id"`
	OriginalKey  string           `json:"original_img_path"`
	AnnotatedKey string           `json:"predicted_img_path"`
	Labels       []DetectionLabel `json:"labels"`
	Time         float64          `json:"time"`
}

// MarshalJSON пишет время как unix-секунды с дробной частью.
func (s PredictionSummary) MarshalJSON() ([]byte, error) {
	labels := s.Labels
	if labels == nil {
		labels = []DetectionLabel{}
	}
	return json.Marshal(summaryJSON{
		ID:           s.ID,
		PredictionID: s.PredictionID,
		OriginalKey:  s.OriginalKey,
		AnnotatedKey: s.AnnotatedKey,
		Labels:       labels,
		Time:         float64(s.CreatedAt.UnixMicro()) / 1e6,
	})
}

func (s *PredictionSummary) UnmarshalJSON(data []byte) error {
	var raw summaryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = PredictionSummary{
		ID:           raw.ID,
		PredictionID: raw.PredictionID,
		OriginalKey:  raw.OriginalKey,
		AnnotatedKey: raw.AnnotatedKey,
		Labels:       raw.Labels,
		CreatedAt:    time.UnixMicro(int64(raw.Time * 1e6)).UTC(),
	}
	return nil
}
