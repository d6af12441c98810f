package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// RemoteDetector клиент внешнего сервиса YOLO.
// POST /detect принимает multipart с полями file и namespace.
type RemoteDetector struct {
	baseURL string
	client  *http.Client
}

type detectResponse struct {
	Labels    *string `json:"labels"`
	Annotated []byte  `json:"annotated_image"`
}

// NewRemoteDetector создаёт клиента сервиса распознавания.
func NewRemoteDetector(baseURL string, timeout time.Duration) *RemoteDetector {
	return &RemoteDetector{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Infer отправляет изображение на распознавание.
// 404 от сервиса означает, что файл меток не создан.
func (d *RemoteDetector) Infer(ctx context.Context, image entity.SourceImage, namespace string) (*entity.DetectionArtifacts, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("namespace", namespace); err != nil {
		return nil, fmt.Errorf("write namespace: %w", err)
	}
	part, err := writer.CreateFormFile("file", image.Name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, err, "send detect request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &entity.DetectionArtifacts{HasLabels: false}, nil
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Newf(apperr.KindRemoteService, "detect failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.KindBackendContract, err, "decode detect response")
	}

	artifacts := &entity.DetectionArtifacts{Annotated: out.Annotated}
	if out.Labels != nil {
		artifacts.Labels = []byte(*out.Labels)
		artifacts.HasLabels = true
	}
	return artifacts, nil
}

// CheckHealth проверяет доступность сервиса распознавания
func (d *RemoteDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindRemoteService, err, "detector health")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.Newf(apperr.KindRemoteService, "detector unhealthy: %d", resp.StatusCode)
	}
	return nil
}

var _ port.DetectionBackend = (*RemoteDetector)(nil)
