package vision

import (
	"bytes"
	"fmt"
	"math"
	"sort"
)

// box одна детекция в нормированных координатах центра
type box struct {
	class  int
	cx, cy float64
	w, h   float64
	score  float32
}

func (b box) corners() (x1, y1, x2, y2 float64) {
	return b.cx - b.w/2, b.cy - b.h/2, b.cx + b.w/2, b.cy + b.h/2
}

// iou отношение пересечения к объединению двух рамок
func iou(a, b box) float64 {
	ax1, ay1, ax2, ay2 := a.corners()
	bx1, by1, bx2, by2 := b.corners()

	iw := math.Min(ax2, bx2) - math.Max(ax1, bx1)
	ih := math.Min(ay2, by2) - math.Max(ay1, by1)
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := a.w*a.h + b.w*b.h - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// nonMaxSuppression оставляет самые уверенные рамки, подавляя перекрытия внутри одного класса.
func nonMaxSuppression(boxes []box, threshold float64) []box {
	sorted := make([]box, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	kept := make([]box, 0, len(sorted))
	for _, b := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.class == b.class && iou(k, b) > threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, b)
		}
	}
	return kept
}

// encodeLabels пишет рамки в формате YOLO: «класс cx cy w h» по строке на объект.
func encodeLabels(boxes []box) []byte {
	var buf bytes.Buffer
	for _, b := range boxes {
		fmt.Fprintf(&buf, "%d %.6f %.6f %.6f %.6f\n", b.class, b.cx, b.cy, b.w, b.h)
	}
	return buf.Bytes()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
