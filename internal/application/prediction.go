package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// PipelineOptions настройки конвейера распознавания
type PipelineOptions struct {
	RemoteTimeout time.Duration // ограничение на один вызов детектора, 0 без ограничения
	MaxAttempts   int           // попыток на вызов хранилища или детектора, 1 без повторов
}

// PredictionPipeline проводит изображение от ключа в хранилище до сохранённой сводки.
// Шаги выполняются строго последовательно, общего состояния между запросами нет.
type PredictionPipeline struct {
	images   port.ImageStore
	detector port.DetectionBackend
	results  port.ResultStore
	vocab    entity.Vocabulary
	opts     PipelineOptions
	log      zerolog.Logger

	newID func() string
	now   func() time.Time
}

// NewPredictionPipeline создаёт конвейер поверх хранилищ и детектора.
func NewPredictionPipeline(
	images port.ImageStore,
	detector port.DetectionBackend,
	results port.ResultStore,
	vocab entity.Vocabulary,
	opts PipelineOptions,
	log zerolog.Logger,
) *PredictionPipeline {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &PredictionPipeline{
		images:   images,
		detector: detector,
		results:  results,
		vocab:    vocab,
		opts:     opts,
		log:      log.With().Str("component", "prediction").Logger(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Predict распознаёт объекты на изображении imageKey и сохраняет сводку.
// Если детектор не создал файл меток, возвращается ошибка apperr.KindNotFound и ничего не сохраняется.
func (p *PredictionPipeline) Predict(ctx context.Context, imageKey string) (*entity.PredictionSummary, error) {
	if err := entity.ValidateImageKey(imageKey); err != nil {
		p.log.Warn().Err(err).Str("image", imageKey).Msg("rejected image key")
		return nil, err
	}

	req := entity.NewPredictionRequest(p.newID(), imageKey)
	log := p.log.With().Str("prediction_id", req.ID).Str("image", imageKey).Logger()
	log.Info().Msg("start processing")

	summary, err := p.run(ctx, req, log)
	if err != nil {
		ev := log.Error()
		if apperr.Is(err, apperr.KindNotFound) {
			ev = log.Info()
		}
		ev.Err(err).Str("kind", apperr.KindOf(err).String()).Msg("prediction finished without summary")
		return nil, err
	}

	log.Info().
		Str("summary_id", summary.ID).
		Int("labels", len(summary.Labels)).
		Msg("prediction done")
	return summary, nil
}

func (p *PredictionPipeline) run(ctx context.Context, req entity.PredictionRequest, log zerolog.Logger) (*entity.PredictionSummary, error) {
	var data []byte
	err := retry(ctx, p.opts.MaxAttempts, log, "get source image", func() error {
		var err error
		data, err = p.images.Get(ctx, req.ImageKey)
		return err
	})
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		return nil, apperr.Wrap(apperr.KindNotFound, err, "source image not found")
	case err != nil:
		return nil, apperr.Wrap(apperr.KindRemoteService, err, "get source image")
	}
	log.Debug().Int("bytes", len(data)).Msg("source image downloaded")

	var artifacts *entity.DetectionArtifacts
	err = retry(ctx, p.opts.MaxAttempts, log, "infer", func() error {
		inferCtx, cancel := p.withTimeout(ctx)
		defer cancel()

		var err error
		artifacts, err = p.detector.Infer(inferCtx, entity.SourceImage{Name: req.FileName(), Data: data}, req.Namespace())
		return err
	})
	if err != nil {
		return nil, apperr.WrapDefault(apperr.KindRemoteService, err, "detection backend")
	}

	if artifacts == nil || !artifacts.HasLabels {
		return nil, apperr.Newf(apperr.KindNotFound, "prediction: %s/%s. prediction result not found", req.ID, req.ImageKey)
	}

	labels, err := entity.ParseLabels(artifacts.Labels, p.vocab)
	if err != nil {
		return nil, err
	}
	log.Debug().Interface("labels", labels).Msg("labels parsed")

	annotatedKey := req.AnnotatedKey()
	if annotatedKey == req.ImageKey {
		return nil, apperr.Newf(apperr.KindInput, "annotated key %q would overwrite the source image", annotatedKey)
	}
	if len(artifacts.Annotated) == 0 {
		return nil, apperr.New(apperr.KindBackendContract, "detection backend returned labels without an annotated image")
	}
	err = retry(ctx, p.opts.MaxAttempts, log, "put annotated image", func() error {
		return p.images.Put(ctx, annotatedKey, artifacts.Annotated)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, err, "put annotated image")
	}
	log.Debug().Str("annotated", annotatedKey).Msg("annotated image uploaded")

	summary := &entity.PredictionSummary{
		PredictionID: req.ID,
		OriginalKey:  req.ImageKey,
		AnnotatedKey: annotatedKey,
		Labels:       labels,
		CreatedAt:    p.now().UTC(),
	}

	id, err := p.results.Insert(ctx, summary)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, err, "store prediction summary")
	}
	summary.ID = id

	return summary, nil
}

func (p *PredictionPipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.RemoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.opts.RemoteTimeout)
}

var _ port.Predictor = (*PredictionPipeline)(nil)
