package entity

import (
	"bufio"
	"bytes"
	"math"
	"strconv"
	"strings"

	"yolo-bot/internal/domain/apperr"
)

const labelFields = 5

// ParseLabels разбирает файл меток: по строке на объект,
// «класс cx cy ширина высота». Пустые строки пропускаются, лишние поля (уверенность) игнорируются.
func ParseLabels(data []byte, vocab Vocabulary) ([]DetectionLabel, error) {
	labels := make([]DetectionLabel, 0)

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		label, err := parseLabelLine(fields, vocab)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindBackendContract, err, "label line "+strconv.Itoa(lineNo))
		}
		labels = append(labels, label)
	}
	if err := sc.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindBackendContract, err, "read labels")
	}

	return labels, nil
}

func parseLabelLine(fields []string, vocab Vocabulary) (DetectionLabel, error) {
	if len(fields) < labelFields {
		return DetectionLabel{}, apperr.Newf(apperr.KindBackendContract, "expected %d fields, got %d", labelFields, len(fields))
	}

	index, err := strconv.Atoi(fields[0])
	if err != nil {
		return DetectionLabel{}, apperr.Newf(apperr.KindBackendContract, "class index %q is not an integer", fields[0])
	}
	name, ok := vocab.Name(index)
	if !ok {
		return DetectionLabel{}, apperr.Newf(apperr.KindBackendContract, "class index %d is out of vocabulary", index)
	}

	var box [4]float64
	for i := range box {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return DetectionLabel{}, apperr.Newf(apperr.KindBackendContract, "field %d %q is not a number", i+2, fields[i+1])
		}
		if math.IsNaN(v) || v < 0 || v > 1 {
			return DetectionLabel{}, apperr.Newf(apperr.KindBackendContract, "field %d %v is outside [0,1]", i+2, v)
		}
		box[i] = v
	}

	return DetectionLabel{Class: name, CX: box[0], CY: box[1], Width: box[2], Height: box[3]}, nil
}
