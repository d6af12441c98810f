package container

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"yolo-bot/config"
	app "yolo-bot/internal/application"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
	"yolo-bot/internal/infrastructure/predictor"
	"yolo-bot/internal/infrastructure/storage"
	"yolo-bot/internal/infrastructure/vision"
	"yolo-bot/internal/infrastructure/vocab"
)

type Container struct {
	Images    port.ImageStore
	Pipeline  *app.PredictionPipeline // nil, если распознавание идёт во внешнем сервисе
	Predictor port.Predictor
	Health    port.HealthChecker // nil, если детектор не умеет проверять себя

	log     zerolog.Logger
	closers []func(context.Context) error
}

// New собирает конвейер из готовых адаптеров.
func New(
	images port.ImageStore,
	detector port.DetectionBackend,
	results port.ResultStore,
	vocabulary entity.Vocabulary,
	opts app.PipelineOptions,
	log zerolog.Logger,
) *Container {
	pipeline := app.NewPredictionPipeline(images, detector, results, vocabulary, opts, log)

	return &Container{
		Images:    images,
		Pipeline:  pipeline,
		Predictor: pipeline,
		log:       log,
	}
}

// Build создаёт адаптеры по конфигурации для режима mode.
// При ошибке уже открытые соединения закрываются.
func Build(ctx context.Context, cfg *config.Config, mode string, log zerolog.Logger) (*Container, error) {
	c := &Container{log: log}
	fail := func(err error) (*Container, error) {
		_ = c.Close(context.Background())
		return nil, err
	}

	if mode == config.ModeBot && cfg.BotPolicy != app.PolicyDetection {
		return c, nil
	}

	images, err := c.buildImageStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	c.Images = images

	if !cfg.UsesPipeline(mode) {
		log.Info().Str("predictor_url", cfg.PredictorURL).Msg("using remote predictor")
		c.Predictor = predictor.NewClient(cfg.PredictorURL, cfg.RemoteTimeout)
		return c, nil
	}

	vocabulary, err := vocab.Load(cfg.VocabularyPath)
	if err != nil {
		return fail(fmt.Errorf("load vocabulary: %w", err))
	}

	results, err := c.buildResultStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	detector, err := c.buildDetector(cfg, vocabulary)
	if err != nil {
		return fail(err)
	}

	opts := app.PipelineOptions{RemoteTimeout: cfg.RemoteTimeout, MaxAttempts: cfg.RetryMaxAttempts}
	built := New(images, detector, results, vocabulary, opts, log)
	built.Health = c.Health
	built.closers = c.closers
	return built, nil
}

// Policy возвращает стратегию ответа по имени.
// downloader нужен только стратегии распознавания.
func (c *Container) Policy(name string, downloader port.PhotoDownloader, attachAnnotated bool) (app.Policy, error) {
	switch name {
	case app.PolicyEcho:
		return app.EchoPolicy{}, nil
	case app.PolicyQuoteEcho:
		return app.NewQuoteEchoPolicy(), nil
	case app.PolicyDetection:
		if c.Images == nil || c.Predictor == nil {
			return nil, errors.New("detection policy requires image store and predictor")
		}
		return app.NewDetectionPolicy(downloader, c.Images, c.Predictor, attachAnnotated, c.log), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

// Close закрывает соединения в обратном порядке
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i](ctx))
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) buildImageStore(ctx context.Context, cfg *config.Config) (port.ImageStore, error) {
	switch cfg.ImageStore {
	case config.StoreMemory:
		return storage.NewMemoryImageStore(), nil
	case config.StoreS3:
		return storage.NewS3ImageStore(ctx, s3Config(cfg))
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
	}
}

func (c *Container) buildResultStore(ctx context.Context, cfg *config.Config) (port.ResultStore, error) {
	switch cfg.ResultStore {
	case config.StoreMemory:
		return storage.NewMemoryResultStore(), nil
	case config.StoreMongo:
		store, err := storage.NewMongoResultStore(ctx, storage.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDB,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return store, nil
	case config.StorePostgres:
		store, err := storage.NewPostgresResultStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func(context.Context) error {
			store.Close()
			return nil
		})
		return store, nil
	default:
		return nil, fmt.Errorf("unknown result store %q", cfg.ResultStore)
	}
}

func (c *Container) buildDetector(cfg *config.Config, vocabulary entity.Vocabulary) (port.DetectionBackend, error) {
	switch cfg.Detector {
	case config.DetectorRemote:
		detector := vision.NewRemoteDetector(cfg.DetectorURL, cfg.RemoteTimeout)
		c.Health = detector
		return detector, nil
	case config.DetectorLocal:
		detector, err := vision.NewLocalDetector(cfg.ModelPath, vocabulary.Classes())
		if err != nil {
			return nil, fmt.Errorf("local detector: %w", err)
		}
		c.closers = append(c.closers, func(context.Context) error { return detector.Close() })
		return detector, nil
	default:
		return nil, fmt.Errorf("unknown detector %q", cfg.Detector)
	}
}

// s3Config переводит настройки в параметры клиента S3.
// Повторами управляет конвейер, поэтому SDK делает одну попытку на вызов.
func s3Config(cfg *config.Config) storage.S3Config {
	return storage.S3Config{
		Bucket:      cfg.BucketName,
		Region:      cfg.AWSRegion,
		AccessKey:   cfg.AWSKeyID,
		SecretKey:   cfg.AWSAccessKey,
		Endpoint:    cfg.S3Endpoint,
		MaxAttempts: 1,
	}
}
