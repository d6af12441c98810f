package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// Dispatcher обрабатывает одно входящее сообщение
type Dispatcher interface {
	Dispatch(ctx context.Context, msg entity.InboundMessage) error
}

// Bot представляет Telegram-бота
type Bot struct {
	api     *tgbotapi.BotAPI
	http    *http.Client
	workers int
	log     zerolog.Logger
}

const defaultDownloadTimeout = 60 * time.Second

// NewBot создаёт нового бота. workers ограничивает число одновременно обрабатываемых сообщений,
// downloadTimeout ограничивает скачивание одного файла.
func NewBot(token string, workers int, downloadTimeout time.Duration, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	log = log.With().Str("component", "telegram").Logger()
	log.Info().Str("username", api.Self.UserName).Int64("id", api.Self.ID).Msg("authorized")

	return &Bot{
		api:     api,
		http:    downloadClient(downloadTimeout),
		workers: workers,
		log:     log,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context, dispatcher Dispatcher) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	b.log.Info().Int("workers", b.workers).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info().Msg("polling stopped")
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}

			msg := toInbound(update.Message)
			g.Go(func() error {
				// Ошибка одного сообщения не должна останавливать бота
				if err := dispatcher.Dispatch(gctx, msg); err != nil {
					b.log.Debug().Err(err).Int64("chat_id", msg.ChatID).Msg("dispatch finished with error")
				}
				return nil
			})
		}
	}
}

// Send отправляет ответ: текст, цитату или фото с подписью
func (b *Bot) Send(ctx context.Context, reply entity.Reply) error {
	_ = ctx

	var c tgbotapi.Chattable
	if reply.HasPhoto() {
		photo := tgbotapi.NewPhoto(reply.ChatID, tgbotapi.FileBytes{Name: reply.PhotoName, Bytes: reply.Photo})
		photo.Caption = reply.Text
		photo.ReplyToMessageID = reply.ReplyTo
		c = photo
	} else {
		msg := tgbotapi.NewMessage(reply.ChatID, reply.Text)
		msg.ReplyToMessageID = reply.ReplyTo
		c = msg
	}

	if _, err := b.api.Send(c); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// DownloadPhoto скачивает файл из Telegram
func (b *Bot) DownloadPhoto(ctx context.Context, fileID string) (*entity.SourceImage, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindMessageContent, err, "get file")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindMessageContent, err, "build download request")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindMessageContent, err, "download file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindMessageContent, "download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindMessageContent, err, "read file")
	}

	return &entity.SourceImage{Name: photoName(file), Data: data}, nil
}

func downloadClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &http.Client{Timeout: timeout}
}

// photoName имя файла на стороне Telegram, например file_12.jpg
func photoName(file tgbotapi.File) string {
	if file.FilePath != "" {
		return path.Base(file.FilePath)
	}
	return file.FileUniqueID + ".jpg"
}

// toInbound переводит сообщение Telegram в доменное
func toInbound(msg *tgbotapi.Message) entity.InboundMessage {
	in := entity.InboundMessage{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	// Подпись считается текстом только у фото
	if in.Text == "" && len(msg.Photo) > 0 {
		in.Text = msg.Caption
	}
	for _, p := range msg.Photo {
		in.Photos = append(in.Photos, entity.PhotoRef{
			FileID:   p.FileID,
			Width:    p.Width,
			Height:   p.Height,
			FileSize: p.FileSize,
		})
	}
	return in
}

// Проверка реализации интерфейсов
var (
	_ port.Messenger       = (*Bot)(nil)
	_ port.PhotoDownloader = (*Bot)(nil)
)
