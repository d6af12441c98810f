package app

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"yolo-bot/internal/domain/apperr"
)

var retryInitialInterval = 500 * time.Millisecond

// retry повторяет fn при сбоях удалённых сервисов. Все ключи запроса выводятся из prediction_id,
// поэтому повтор записи безопасен.
func retry(ctx context.Context, attempts int, log zerolog.Logger, op string, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = retryInitialInterval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("op", op).Dur("backoff", wait).Msg("remote call failed, will retry")
	})
}

func retryable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindRemoteService, apperr.KindUnknown:
		return true
	default:
		return false
	}
}
