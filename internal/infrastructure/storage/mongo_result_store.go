package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// MongoConfig параметры подключения к MongoDB
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoResultStore хранит сводки в коллекции MongoDB
type MongoResultStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoLabel struct {
	Class  string  `bson:"class"`
	CX     float64 `bson:"cx"`
	CY     float64 `bson:"cy"`
	Width  float64 `bson:"width"`
	Height float64 `bson:"height"`
}

type mongoSummary struct {
	PredictionID string       `bson:"prediction_id"`
	OriginalKey  string       `bson:"original_img_path"`
	AnnotatedKey string       `bson:"predicted_img_path"`
	Labels       []mongoLabel `bson:"labels"`
	Time         float64      `bson:"time"`
	CreatedAt    time.Time    `bson:"created_at"`
}

// NewMongoResultStore подключается к MongoDB и проверяет соединение.
func NewMongoResultStore(ctx context.Context, cfg MongoConfig) (*MongoResultStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoResultStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Insert сохраняет сводку и возвращает ObjectID в hex-виде
func (s *MongoResultStore) Insert(ctx context.Context, summary *entity.PredictionSummary) (string, error) {
	res, err := s.collection.InsertOne(ctx, toMongoSummary(summary))
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}

	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	default:
		return fmt.Sprint(id), nil
	}
}

// Close закрывает соединение
func (s *MongoResultStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toMongoSummary(summary *entity.PredictionSummary) mongoSummary {
	labels := make([]mongoLabel, 0, len(summary.Labels))
	for _, l := range summary.Labels {
		labels = append(labels, mongoLabel(l))
	}
	return mongoSummary{
		PredictionID: summary.PredictionID,
		OriginalKey:  summary.OriginalKey,
		AnnotatedKey: summary.AnnotatedKey,
		Labels:       labels,
		Time:         float64(summary.CreatedAt.UnixMicro()) / 1e6,
		CreatedAt:    summary.CreatedAt,
	}
}

// Проверка реализации интерфейса
var _ port.ResultStore = (*MongoResultStore)(nil)
