package entity

import "strconv"

// SummaryHeader первая строка ответа с результатом
const SummaryHeader = "Detected Objects:"

// ClassCount число объектов одного класса
type ClassCount struct {
	Class string
	Count int
}

// CountLabels группирует метки по классу, сохраняя порядок первого появления.
func CountLabels(labels []DetectionLabel) []ClassCount {
	counts := make([]ClassCount, 0)
	pos := make(map[string]int)
	for _, l := range labels {
		if i, ok := pos[l.Class]; ok {
			counts[i].Count++
			continue
		}
		pos[l.Class] = len(counts)
		counts = append(counts, ClassCount{Class: l.Class, Count: 1})
	}
	return counts
}

// FormatLabels строит текст ответа: заголовок и строка «класс: количество» на каждый класс.
func FormatLabels(labels []DetectionLabel) string {
	buf := make([]byte, 0, 64)
	buf = append(buf, SummaryHeader...)
	buf = append(buf, '\n')
	for _, c := range CountLabels(labels) {
		buf = append(buf, c.Class...)
		buf = append(buf, ": "...)
		buf = strconv.AppendInt(buf, int64(c.Count), 10)
		buf = append(buf, '\n')
	}
	return string(buf)
}
