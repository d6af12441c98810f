package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
	"yolo-bot/internal/infrastructure/storage"
)

const sampleLabels = "16 0.5 0.5 0.2 0.3\n16 0.1 0.1 0.05 0.05\n2 0.9 0.9 0.1 0.1\n"

var (
	testVocab = entity.Vocabulary{0: "person", 2: "car", 16: "dog"}
	fixedNow  = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newTestPipeline(t *testing.T, images port.ImageStore, detector port.DetectionBackend, results port.ResultStore, opts PipelineOptions) *PredictionPipeline {
	t.Helper()
	p := NewPredictionPipeline(images, detector, results, testVocab, opts, zerolog.Nop())
	p.newID = func() string { return "pred-1" }
	p.now = func() time.Time { return fixedNow }
	return p
}

func seededImages(t *testing.T) *storage.MemoryImageStore {
	t.Helper()
	images := storage.NewMemoryImageStore()
	require.NoError(t, images.Put(context.Background(), "photos/file_1.jpg", []byte("original")))
	return images
}

func TestPredictionPipeline_Predict(t *testing.T) {
	images := seededImages(t)
	results := storage.NewMemoryResultStore()
	detector := detectorReturning(sampleLabels, []byte("annotated"))
	p := newTestPipeline(t, images, detector, results, PipelineOptions{})

	summary, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.NoError(t, err)

	require.Equal(t, "1", summary.ID)
	require.Equal(t, "pred-1", summary.PredictionID)
	require.Equal(t, "photos/file_1.jpg", summary.OriginalKey)
	require.Equal(t, "predictions/pred-1/file_1.jpg", summary.AnnotatedKey)
	require.Equal(t, fixedNow, summary.CreatedAt)
	require.Equal(t, []entity.DetectionLabel{
		{Class: "dog", CX: 0.5, CY: 0.5, Width: 0.2, Height: 0.3},
		{Class: "dog", CX: 0.1, CY: 0.1, Width: 0.05, Height: 0.05},
		{Class: "car", CX: 0.9, CY: 0.9, Width: 0.1, Height: 0.1},
	}, summary.Labels)
	require.Equal(t, "Detected Objects:\ndog: 2\ncar: 1\n", entity.FormatLabels(summary.Labels))

	require.Equal(t, []string{"pred-1"}, detector.namespaces)

	original, err := images.Get(context.Background(), "photos/file_1.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("original"), original)

	annotated, err := images.Get(context.Background(), "predictions/pred-1/file_1.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("annotated"), annotated)

	stored := results.All()
	require.Len(t, stored, 1)
	require.Equal(t, summary.Labels, stored[0].Labels)
}

func TestPredictionPipeline_NoLabelArtifact(t *testing.T) {
	images := seededImages(t)
	results := storage.NewMemoryResultStore()
	detector := &fakeDetector{infer: func(context.Context, entity.SourceImage, string) (*entity.DetectionArtifacts, error) {
		return &entity.DetectionArtifacts{HasLabels: false, Annotated: []byte("annotated")}, nil
	}}
	p := newTestPipeline(t, images, detector, results, PipelineOptions{})

	summary, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.Nil(t, summary)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
	require.Contains(t, err.Error(), "prediction: pred-1/photos/file_1.jpg. prediction result not found")

	require.Empty(t, results.All())
	require.Equal(t, []string{"photos/file_1.jpg"}, images.Keys())
}

func TestPredictionPipeline_EmptyLabelFileIsZeroDetections(t *testing.T) {
	results := storage.NewMemoryResultStore()
	p := newTestPipeline(t, seededImages(t), detectorReturning("", []byte("annotated")), results, PipelineOptions{})

	summary, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.NoError(t, err)
	require.Empty(t, summary.Labels)
	require.Len(t, results.All(), 1)
}

func TestPredictionPipeline_MissingSourceImage(t *testing.T) {
	results := storage.NewMemoryResultStore()
	detector := detectorReturning(sampleLabels, []byte("annotated"))
	p := newTestPipeline(t, storage.NewMemoryImageStore(), detector, results, PipelineOptions{})

	_, err := p.Predict(context.Background(), "photos/missing.jpg")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
	require.Zero(t, detector.Calls())
	require.Empty(t, results.All())
}

func TestPredictionPipeline_InvalidKey(t *testing.T) {
	detector := detectorReturning(sampleLabels, []byte("annotated"))
	p := newTestPipeline(t, seededImages(t), detector, storage.NewMemoryResultStore(), PipelineOptions{})

	_, err := p.Predict(context.Background(), "../secret")
	require.True(t, apperr.Is(err, apperr.KindInput))
	require.Zero(t, detector.Calls())
}

func TestPredictionPipeline_StoreUnreachable(t *testing.T) {
	detector := detectorReturning(sampleLabels, []byte("annotated"))
	p := newTestPipeline(t, brokenImageStore{}, detector, storage.NewMemoryResultStore(), PipelineOptions{})

	_, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.True(t, apperr.Is(err, apperr.KindRemoteService))
	require.Zero(t, detector.Calls())
}

func TestPredictionPipeline_BackendUnavailable(t *testing.T) {
	results := storage.NewMemoryResultStore()
	detector := &fakeDetector{infer: func(context.Context, entity.SourceImage, string) (*entity.DetectionArtifacts, error) {
		return nil, errors.New("connection refused")
	}}
	p := newTestPipeline(t, seededImages(t), detector, results, PipelineOptions{})

	_, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.True(t, apperr.Is(err, apperr.KindRemoteService))
	require.Equal(t, 1, detector.Calls())
	require.Empty(t, results.All())
}

func TestPredictionPipeline_BackendContractError(t *testing.T) {
	images := seededImages(t)
	results := storage.NewMemoryResultStore()
	p := newTestPipeline(t, images, detectorReturning("99 0.5 0.5 0.1 0.1\n", []byte("annotated")), results, PipelineOptions{MaxAttempts: 3})

	_, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.True(t, apperr.Is(err, apperr.KindBackendContract))
	require.Empty(t, results.All())
	require.Equal(t, []string{"photos/file_1.jpg"}, images.Keys())
}

func TestPredictionPipeline_MissingAnnotatedImage(t *testing.T) {
	results := storage.NewMemoryResultStore()
	p := newTestPipeline(t, seededImages(t), detectorReturning(sampleLabels, nil), results, PipelineOptions{})

	_, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.True(t, apperr.Is(err, apperr.KindBackendContract))
	require.Empty(t, results.All())
}

func TestPredictionPipeline_PersistenceError(t *testing.T) {
	detector := detectorReturning(sampleLabels, []byte("annotated"))
	p := newTestPipeline(t, seededImages(t), detector, failingResultStore{}, PipelineOptions{})

	summary, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.Nil(t, summary)
	require.True(t, apperr.Is(err, apperr.KindPersistence))
}

func TestPredictionPipeline_RetriesRemoteFailures(t *testing.T) {
	prev := retryInitialInterval
	retryInitialInterval = time.Millisecond
	t.Cleanup(func() { retryInitialInterval = prev })

	failures := 2
	detector := &fakeDetector{}
	detector.infer = func(context.Context, entity.SourceImage, string) (*entity.DetectionArtifacts, error) {
		if detector.calls <= failures {
			return nil, apperr.New(apperr.KindRemoteService, "503 from backend")
		}
		return &entity.DetectionArtifacts{Labels: []byte(sampleLabels), HasLabels: true, Annotated: []byte("annotated")}, nil
	}
	p := newTestPipeline(t, seededImages(t), detector, storage.NewMemoryResultStore(), PipelineOptions{MaxAttempts: 3})

	summary, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.NoError(t, err)
	require.Len(t, summary.Labels, 3)
	require.Equal(t, 3, detector.Calls())
	// Повтор использует тот же prediction_id
	require.Equal(t, []string{"pred-1", "pred-1", "pred-1"}, detector.namespaces)
}

func TestPredictionPipeline_NoRetryByDefault(t *testing.T) {
	detector := &fakeDetector{infer: func(context.Context, entity.SourceImage, string) (*entity.DetectionArtifacts, error) {
		return nil, apperr.New(apperr.KindRemoteService, "503 from backend")
	}}
	p := newTestPipeline(t, seededImages(t), detector, storage.NewMemoryResultStore(), PipelineOptions{})

	_, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.Error(t, err)
	require.Equal(t, 1, detector.Calls())
}

func TestPredictionPipeline_BackendTimeout(t *testing.T) {
	detector := &fakeDetector{infer: func(ctx context.Context, _ entity.SourceImage, _ string) (*entity.DetectionArtifacts, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	p := newTestPipeline(t, seededImages(t), detector, storage.NewMemoryResultStore(), PipelineOptions{RemoteTimeout: 10 * time.Millisecond})

	_, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.True(t, apperr.Is(err, apperr.KindRemoteService))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPredictionPipeline_ConcurrentRequestsUseDistinctKeys(t *testing.T) {
	images := storage.NewMemoryImageStore()
	results := storage.NewMemoryResultStore()
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, images.Put(ctx, fmt.Sprintf("photos/file_%d.jpg", i%2), []byte("img")))
	}

	detector := detectorReturning(sampleLabels, []byte("annotated"))
	p := NewPredictionPipeline(images, detector, results, testVocab, PipelineOptions{}, zerolog.Nop())

	var wg sync.WaitGroup
	keys := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := p.Predict(ctx, fmt.Sprintf("photos/file_%d.jpg", i%2))
			errs[i] = err
			if err == nil {
				keys[i] = s.AnnotatedKey
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.False(t, seen[keys[i]], "duplicate annotated key %s", keys[i])
		seen[keys[i]] = true
	}
	require.Len(t, results.All(), n)
	// 2 исходных изображения и n размеченных
	require.Len(t, images.Keys(), n+2)
}

func TestPredictionPipeline_BackendContractFromDetector(t *testing.T) {
	detector := &fakeDetector{infer: func(context.Context, entity.SourceImage, string) (*entity.DetectionArtifacts, error) {
		return nil, apperr.New(apperr.KindBackendContract, "decode detect response")
	}}
	p := newTestPipeline(t, seededImages(t), detector, storage.NewMemoryResultStore(), PipelineOptions{MaxAttempts: 3})

	_, err := p.Predict(context.Background(), "photos/file_1.jpg")
	require.True(t, apperr.Is(err, apperr.KindBackendContract))
	require.Equal(t, 1, detector.Calls())
}
