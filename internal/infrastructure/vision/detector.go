//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"gocv.io/x/gocv"

	"yolo-bot/internal/domain/apperr"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// LocalDetector запускает YOLOv5 (ONNX) внутри процесса через OpenCV DNN.
type LocalDetector struct {
	InputSize     int
	ConfThreshold float32
	IoUThreshold  float64

	net     gocv.Net
	classes int
	mu      sync.Mutex // gocv.Net не потокобезопасен
}

// NewLocalDetector загружает модель. classes: размер словаря, число столбцов классов в выходе сети.
func NewLocalDetector(modelPath string, classes int) (*LocalDetector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	return &LocalDetector{
		InputSize:     640,
		ConfThreshold: 0.25,
		IoUThreshold:  0.45,
		net:           net,
		classes:       classes,
	}, nil
}

// Infer распознаёт объекты и рисует рамки. Файл меток создаётся всегда,
// пустой файл означает, что объектов не найдено.
func (d *LocalDetector) Infer(ctx context.Context, img entity.SourceImage, namespace string) (*entity.DetectionArtifacts, error) {
	_ = namespace
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, err, "local detector")
	}

	mat, err := decodeToMat(img.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInput, err, "decode image")
	}
	defer mat.Close()

	boxes, err := d.detect(mat)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, err, "local inference")
	}

	annotated, err := d.drawBoxes(mat, boxes)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, err, "draw boxes")
	}

	return &entity.DetectionArtifacts{
		Labels:    encodeLabels(boxes),
		HasLabels: true,
		Annotated: annotated,
	}, nil
}

func (d *LocalDetector) detect(mat gocv.Mat) ([]box, error) {
	size := image.Pt(d.InputSize, d.InputSize)
	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	// Выход YOLOv5: [1, N, 5+classes]: cx, cy, w, h, objectness, вероятности классов
	dims := out.Size()
	if len(dims) != 3 || dims[2] != 5+d.classes {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	rows, cols := dims[1], dims[2]

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, err
	}

	scale := float64(d.InputSize)
	candidates := make([]box, 0)
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]
		objectness := row[4]
		if objectness < d.ConfThreshold {
			continue
		}

		best, bestScore := 0, float32(0)
		for c, p := range row[5:] {
			if p > bestScore {
				best, bestScore = c, p
			}
		}
		score := objectness * bestScore
		if score < d.ConfThreshold {
			continue
		}

		candidates = append(candidates, box{
			class: best,
			cx:    clamp01(float64(row[0]) / scale),
			cy:    clamp01(float64(row[1]) / scale),
			w:     clamp01(float64(row[2]) / scale),
			h:     clamp01(float64(row[3]) / scale),
			score: score,
		})
	}

	return nonMaxSuppression(candidates, d.IoUThreshold), nil
}

// drawBoxes рисует рамки на копии изображения и кодирует её в JPEG.
func (d *LocalDetector) drawBoxes(mat gocv.Mat, boxes []box) ([]byte, error) {
	canvas := mat.Clone()
	defer canvas.Close()

	w, h := float64(canvas.Cols()), float64(canvas.Rows())
	green := color.RGBA{G: 255, A: 255}
	for _, b := range boxes {
		x1, y1, x2, y2 := b.corners()
		rect := image.Rect(int(x1*w), int(y1*h), int(x2*w), int(y2*h))
		gocv.Rectangle(&canvas, rect, green, 2)
		gocv.PutText(&canvas, fmt.Sprintf("%d %.2f", b.class, b.score), image.Pt(rect.Min.X, rect.Min.Y-4),
			gocv.FontHersheySimplex, 0.5, green, 1)
	}

	img, err := canvas.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close освобождает модель
func (d *LocalDetector) Close() error {
	return d.net.Close()
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

var _ port.DetectionBackend = (*LocalDetector)(nil)
