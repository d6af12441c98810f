package app

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// Названия стратегий для конфигурации
const (
	PolicyEcho      = "echo"
	PolicyQuoteEcho = "quote"
	PolicyDetection = "detect"
)

func unsupportedReply(msg entity.InboundMessage) entity.Reply {
	return entity.NewTextReply(msg.ChatID, msgUnsupported)
}

func echoReply(msg entity.InboundMessage) entity.Reply {
	return entity.NewTextReply(msg.ChatID, msgEchoPrefix+msg.Text)
}

// EchoPolicy отвечает исходным текстом с пометкой
type EchoPolicy struct{}

func (EchoPolicy) Name() string { return PolicyEcho }

func (EchoPolicy) Handle(_ context.Context, msg entity.InboundMessage) (entity.Reply, error) {
	if msg.Kind() != entity.KindText {
		return unsupportedReply(msg), nil
	}
	return echoReply(msg), nil
}

// QuoteEchoPolicy отвечает цитатой на исходное сообщение, кроме текста Sentinel
type QuoteEchoPolicy struct {
	Sentinel string
}

// NewQuoteEchoPolicy создаёт стратегию со стандартной фразой отказа от цитаты.
func NewQuoteEchoPolicy() QuoteEchoPolicy {
	return QuoteEchoPolicy{Sentinel: QuoteSentinel}
}

func (QuoteEchoPolicy) Name() string { return PolicyQuoteEcho }

func (p QuoteEchoPolicy) Handle(_ context.Context, msg entity.InboundMessage) (entity.Reply, error) {
	if msg.Kind() != entity.KindText {
		return unsupportedReply(msg), nil
	}
	reply := entity.NewTextReply(msg.ChatID, msg.Text)
	if msg.Text == p.Sentinel {
		return reply, nil
	}
	return reply.Quoting(msg.MessageID), nil
}

// DetectionPolicy отправляет фото на распознавание, текст повторяет
type DetectionPolicy struct {
	downloader      port.PhotoDownloader
	images          port.ImageStore
	predictor       port.Predictor
	attachAnnotated bool
	log             zerolog.Logger
}

// NewDetectionPolicy создаёт стратегию распознавания.
// attachAnnotated включает отправку размеченного изображения вместе со сводкой.
func NewDetectionPolicy(
	downloader port.PhotoDownloader,
	images port.ImageStore,
	predictor port.Predictor,
	attachAnnotated bool,
	log zerolog.Logger,
) *DetectionPolicy {
	return &DetectionPolicy{
		downloader:      downloader,
		images:          images,
		predictor:       predictor,
		attachAnnotated: attachAnnotated,
		log:             log.With().Str("component", "detection_policy").Logger(),
	}
}

func (p *DetectionPolicy) Name() string { return PolicyDetection }

func (p *DetectionPolicy) Handle(ctx context.Context, msg entity.InboundMessage) (entity.Reply, error) {
	switch msg.Kind() {
	case entity.KindPhoto:
		return p.handlePhoto(ctx, msg)
	case entity.KindText:
		return echoReply(msg), nil
	default:
		return unsupportedReply(msg), nil
	}
}

func (p *DetectionPolicy) handlePhoto(ctx context.Context, msg entity.InboundMessage) (entity.Reply, error) {
	// Берём вариант с максимальным разрешением
	photo, _ := msg.LargestPhoto()

	img, err := p.downloader.DownloadPhoto(ctx, photo.FileID)
	if err != nil {
		return entity.Reply{}, apperr.Wrap(apperr.KindMessageContent, err, "download photo")
	}

	key := entity.PhotoKey(img.Name)
	if err := p.images.Put(ctx, key, img.Data); err != nil {
		return entity.Reply{}, apperr.Wrap(apperr.KindRemoteService, err, "upload photo")
	}
	p.log.Debug().Str("image", key).Int("bytes", len(img.Data)).Msg("photo uploaded")

	summary, err := p.predictor.Predict(ctx, key)
	if err != nil {
		return entity.Reply{}, fmt.Errorf("predict %s: %w", key, err)
	}

	reply := entity.NewTextReply(msg.ChatID, entity.FormatLabels(summary.Labels))
	if p.attachAnnotated {
		annotated, err := p.images.Get(ctx, summary.AnnotatedKey)
		if err != nil {
			p.log.Warn().Err(err).Str("prediction_id", summary.PredictionID).Msg("annotated image unavailable, sending text only")
			return reply, nil
		}
		reply.Photo = annotated
		reply.PhotoName = path.Base(summary.AnnotatedKey)
	}
	return reply, nil
}
