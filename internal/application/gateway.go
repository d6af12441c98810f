package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// Policy стратегия ответа на входящее сообщение
type Policy interface {
	Name() string
	Handle(ctx context.Context, msg entity.InboundMessage) (entity.Reply, error)
}

// ChatGateway принимает сообщения чата, передаёт их стратегии и отправляет ровно один ответ.
type ChatGateway struct {
	policy    Policy
	messenger port.Messenger
	log       zerolog.Logger
}

// NewChatGateway создаёт шлюз с выбранной стратегией.
func NewChatGateway(policy Policy, messenger port.Messenger, log zerolog.Logger) *ChatGateway {
	return &ChatGateway{
		policy:    policy,
		messenger: messenger,
		log:       log.With().Str("component", "gateway").Str("policy", policy.Name()).Logger(),
	}
}

// Dispatch обрабатывает одно сообщение. Если стратегия вернула ошибку, вместо результата
// уходит уведомление о сбое; подробности ошибки пользователю не показываются.
func (g *ChatGateway) Dispatch(ctx context.Context, msg entity.InboundMessage) error {
	log := g.log.With().
		Int64("chat_id", msg.ChatID).
		Int("message_id", msg.MessageID).
		Str("kind", string(msg.Kind())).
		Logger()
	log.Info().Msg("incoming message")

	reply, err := g.policy.Handle(ctx, msg)
	if err != nil {
		ev := log.Error()
		if apperr.Is(err, apperr.KindNotFound) {
			ev = log.Info()
		}
		ev.Err(err).Str("error_kind", apperr.KindOf(err).String()).Msg("message handling failed")
		reply = failureReply(msg, err)
	}

	if sendErr := g.messenger.Send(ctx, reply); sendErr != nil {
		log.Error().Err(sendErr).Msg("send reply")
		return errors.Join(err, sendErr)
	}
	return err
}

func failureReply(msg entity.InboundMessage, err error) entity.Reply {
	if apperr.Is(err, apperr.KindNotFound) {
		return entity.NewTextReply(msg.ChatID, msgNoResult)
	}
	return entity.NewTextReply(msg.ChatID, msgPredictionError)
}
