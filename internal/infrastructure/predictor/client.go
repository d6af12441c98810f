// Package predictor клиент HTTP-сервиса распознавания для бота.
package predictor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// Client вызывает POST /predict?imgName=<key> у сервиса распознавания
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient создаёт клиента сервиса распознавания.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Predict запускает распознавание изображения, уже загруженного в хранилище.
func (c *Client) Predict(ctx context.Context, imageKey string) (*entity.PredictionSummary, error) {
	endpoint := c.baseURL + "/predict?" + url.Values{"imgName": {imageKey}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInput, err, "build predict request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, err, "predict request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, apperr.New(apperr.KindNotFound, msg)
		case http.StatusBadRequest:
			return nil, apperr.New(apperr.KindInput, msg)
		default:
			return nil, apperr.Newf(apperr.KindRemoteService, "prediction request failed: %d %s", resp.StatusCode, msg)
		}
	}

	var summary entity.PredictionSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, apperr.Wrap(apperr.KindBackendContract, err, "decode prediction summary")
	}
	return &summary, nil
}

var _ port.Predictor = (*Client)(nil)
