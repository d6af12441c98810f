package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/port"
)

// S3Config параметры подключения к бакету
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string // если пусто, стандартная цепочка учётных данных AWS
	SecretKey string
	Endpoint  string // для MinIO и локальных эмуляторов

	MaxAttempts int // попытки внутри SDK, 0 означает значение SDK по умолчанию (3)
}

// S3ImageStore хранилище изображений в бакете S3
type S3ImageStore struct {
	client *s3.Client
	bucket string
}

// NewS3ImageStore создаёт клиента S3 по конфигурации.
func NewS3ImageStore(ctx context.Context, cfg S3Config) (*S3ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	if cfg.MaxAttempts > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
			// S3-совместимые хранилища не всегда принимают контрольные суммы в трейлере
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})

	return NewS3ImageStoreWithClient(client, cfg.Bucket), nil
}

// NewS3ImageStoreWithClient оборачивает готовый клиент.
func NewS3ImageStoreWithClient(client *s3.Client, bucket string) *S3ImageStore {
	return &S3ImageStore{client: client, bucket: bucket}
}

// Get скачивает объект из бакета
func (s *S3ImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, fmt.Sprintf("s3 object %q", key))
		}
		return nil, apperr.Wrap(apperr.KindRemoteService, err, fmt.Sprintf("s3 get %q", key))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, err, fmt.Sprintf("s3 read %q", key))
	}
	return data, nil
}

// Put загружает объект в бакет
func (s *S3ImageStore) Put(ctx context.Context, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return apperr.Wrap(apperr.KindRemoteService, err, fmt.Sprintf("s3 put %q", key))
	}
	return nil
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// Проверка реализации интерфейса
var _ port.ImageStore = (*S3ImageStore)(nil)
