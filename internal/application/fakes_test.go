package app

import (
	"context"
	"errors"
	"sync"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
)

type fakeDetector struct {
	mu         sync.Mutex
	calls      int
	namespaces []string
	infer      func(ctx context.Context, img entity.SourceImage, namespace string) (*entity.DetectionArtifacts, error)
}

func (d *fakeDetector) Infer(ctx context.Context, img entity.SourceImage, namespace string) (*entity.DetectionArtifacts, error) {
	d.mu.Lock()
	d.calls++
	d.namespaces = append(d.namespaces, namespace)
	d.mu.Unlock()
	return d.infer(ctx, img, namespace)
}

func (d *fakeDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func detectorReturning(labels string, annotated []byte) *fakeDetector {
	return &fakeDetector{infer: func(context.Context, entity.SourceImage, string) (*entity.DetectionArtifacts, error) {
		return &entity.DetectionArtifacts{Labels: []byte(labels), HasLabels: true, Annotated: annotated}, nil
	}}
}

type failingResultStore struct{}

func (failingResultStore) Insert(context.Context, *entity.PredictionSummary) (string, error) {
	return "", errors.New("connection refused")
}

type brokenImageStore struct{}

func (brokenImageStore) Get(context.Context, string) ([]byte, error) {
	return nil, apperr.New(apperr.KindRemoteService, "s3 unreachable")
}

func (brokenImageStore) Put(context.Context, string, []byte) error {
	return apperr.New(apperr.KindRemoteService, "s3 unreachable")
}

type fakeMessenger struct {
	mu      sync.Mutex
	replies []entity.Reply
	err     error
}

func (m *fakeMessenger) Send(_ context.Context, reply entity.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply)
	return m.err
}

type fakeDownloader struct {
	requested []string
	image     *entity.SourceImage
	err       error
}

func (d *fakeDownloader) DownloadPhoto(_ context.Context, fileID string) (*entity.SourceImage, error) {
	d.requested = append(d.requested, fileID)
	if d.err != nil {
		return nil, d.err
	}
	return d.image, nil
}

type fakePredictor struct {
	keys    []string
	summary *entity.PredictionSummary
	err     error
}

func (p *fakePredictor) Predict(_ context.Context, key string) (*entity.PredictionSummary, error) {
	p.keys = append(p.keys, key)
	return p.summary, p.err
}
