package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Режимы запуска
const (
	ModeBot       = "bot"
	ModePredictor = "predictor"
	ModePredict   = "predict"
)

// Бэкенды хранилищ и детектора
const (
	StoreS3       = "s3"
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	DetectorRemote = "remote"
	DetectorLocal  = "local"
)

type Config struct {
	TelegramToken   string
	BotPolicy       string
	BotWorkers      int
	AttachAnnotated bool

	ImageStore   string
	BucketName   string
	AWSRegion    string
	AWSKeyID     string
	AWSAccessKey string
	S3Endpoint   string

	ResultStore     string
	MongoURI        string
	MongoDB         string
	MongoCollection string
	PostgresDSN     string

	Detector       string
	DetectorURL    string
	ModelPath      string
	VocabularyPath string
	PredictorURL   string

	HTTPAddr         string
	RemoteTimeout    time.Duration
	RetryMaxAttempts int

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	var errs []error

	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		BotPolicy:       getString("BOT_POLICY", "detect"),
		BotWorkers:      getInt("BOT_WORKERS", 4, &errs),
		AttachAnnotated: getBool("BOT_ATTACH_ANNOTATED", false, &errs),

		ImageStore:   getString("IMAGE_STORE", StoreS3),
		BucketName:   os.Getenv("BUCKET_NAME"),
		AWSRegion:    getString("AWS_REGION", os.Getenv("REGION")),
		AWSKeyID:     os.Getenv("AWS_KEY_ID"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY"),
		S3Endpoint:   os.Getenv("S3_ENDPOINT"),

		ResultStore:     getString("RESULT_STORE", StoreMongo),
		MongoURI:        getString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getString("MONGO_DB", "default"),
		MongoCollection: getString("MONGO_COLLECTION", "predictions"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),

		Detector:       getString("DETECTOR", DetectorRemote),
		DetectorURL:    os.Getenv("DETECTOR_URL"),
		ModelPath:      os.Getenv("YOLO_MODEL_PATH"),
		VocabularyPath: os.Getenv("VOCABULARY_PATH"),
		PredictorURL:   os.Getenv("PREDICTOR_URL"),

		HTTPAddr:         getString("HTTP_ADDR", ":8081"),
		RemoteTimeout:    getDuration("REMOTE_TIMEOUT", 60*time.Second, &errs),
		RetryMaxAttempts: getInt("RETRY_MAX_ATTEMPTS", 1, &errs),

		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "console"),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UsesPipeline true, если режим собирает конвейер в процессе
func (c *Config) UsesPipeline(mode string) bool {
	return mode != ModeBot || c.PredictorURL == ""
}

// Validate проверяет параметры, нужные для режима mode.
func (c *Config) Validate(mode string) error {
	var errs []error

	if c.RetryMaxAttempts < 1 {
		errs = append(errs, errors.New("RETRY_MAX_ATTEMPTS must be at least 1"))
	}
	if c.RemoteTimeout <= 0 {
		errs = append(errs, errors.New("REMOTE_TIMEOUT must be positive"))
	}

	switch mode {
	case ModeBot:
		if c.TelegramToken == "" {
			errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
		}
		if c.BotWorkers < 1 {
			errs = append(errs, errors.New("BOT_WORKERS must be at least 1"))
		}
		switch c.BotPolicy {
		case "echo", "quote", "detect":
		default:
			errs = append(errs, fmt.Errorf("unknown BOT_POLICY %q", c.BotPolicy))
		}
	case ModePredictor, ModePredict:
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	// Бот без детекции не трогает хранилища
	if mode == ModeBot && c.BotPolicy != "detect" {
		return errors.Join(errs...)
	}

	switch c.ImageStore {
	case StoreS3:
		if c.BucketName == "" {
			errs = append(errs, errors.New("BUCKET_NAME is required for s3 image store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown IMAGE_STORE %q", c.ImageStore))
	}

	if !c.UsesPipeline(mode) {
		return errors.Join(errs...)
	}

	switch c.ResultStore {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for mongo result store"))
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for postgres result store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown RESULT_STORE %q", c.ResultStore))
	}

	switch c.Detector {
	case DetectorRemote:
		if c.DetectorURL == "" {
			errs = append(errs, errors.New("DETECTOR_URL is required for remote detector"))
		}
	case DetectorLocal:
		if c.ModelPath == "" {
			errs = append(errs, errors.New("YOLO_MODEL_PATH is required for local detector"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DETECTOR %q", c.Detector))
	}

	return errors.Join(errs...)
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func getBool(key string, def bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
