package entity

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"yolo-bot/internal/domain/apperr"
)

var testVocab = Vocabulary{0: "person", 2: "car", 16: "dog"}

func TestParseLabels(t *testing.T) {
	data := []byte("16 0.5 0.5 0.2 0.3\n16 0.1 0.1 0.05 0.05\n2 0.9 0.9 0.1 0.1\n")

	labels, err := ParseLabels(data, testVocab)
	require.NoError(t, err)
	require.Equal(t, []DetectionLabel{
		{Class: "dog", CX: 0.5, CY: 0.5, Width: 0.2, Height: 0.3},
		{Class: "dog", CX: 0.1, CY: 0.1, Width: 0.05, Height: 0.05},
		{Class: "car", CX: 0.9, CY: 0.9, Width: 0.1, Height: 0.1},
	}, labels)
}

func TestParseLabels_RoundTrip(t *testing.T) {
	boxes := [][4]float64{
		{0.123456, 0.654321, 0.5, 0.25},
		{0, 1, 0.000001, 0.999999},
		{0.333333, 0.666667, 0.1, 0.9},
	}

	var sb strings.Builder
	for _, b := range boxes {
		fmt.Fprintf(&sb, "0 %.6f %.6f %.6f %.6f\n", b[0], b[1], b[2], b[3])
	}

	labels, err := ParseLabels([]byte(sb.String()), testVocab)
	require.NoError(t, err)
	require.Len(t, labels, len(boxes))
	for i, b := range boxes {
		require.InDelta(t, b[0], labels[i].CX, 1e-9)
		require.InDelta(t, b[1], labels[i].CY, 1e-9)
		require.InDelta(t, b[2], labels[i].Width, 1e-9)
		require.InDelta(t, b[3], labels[i].Height, 1e-9)
	}
}

func TestParseLabels_EmptyFileMeansZeroDetections(t *testing.T) {
	labels, err := ParseLabels(nil, testVocab)
	require.NoError(t, err)
	require.NotNil(t, labels)
	require.Empty(t, labels)

	labels, err = ParseLabels([]byte("\n  \n"), testVocab)
	require.NoError(t, err)
	require.Empty(t, labels)
}

func TestParseLabels_IgnoresConfidenceColumn(t *testing.T) {
	labels, err := ParseLabels([]byte("0 0.5 0.5 0.1 0.1 0.87"), testVocab)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	require.Equal(t, "person", labels[0].Class)
}

func TestParseLabels_ContractViolations(t *testing.T) {
	cases := map[string]string{
		"out of vocabulary": "99 0.5 0.5 0.1 0.1",
		"negative index":    "-1 0.5 0.5 0.1 0.1",
		"too few fields":    "0 0.5 0.5 0.1",
		"non integer class": "dog 0.5 0.5 0.1 0.1",
		"non numeric box":   "0 0.5 x 0.1 0.1",
		"box out of range":  "0 1.5 0.5 0.1 0.1",
		"nan coordinate":    "0 NaN 0.5 0.1 0.1",
		"infinite width":    "0 0.5 0.5 +Inf 0.1",
		"negative infinity": "0 0.5 0.5 0.1 -Inf",
	}

	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLabels([]byte("0 0.1 0.1 0.1 0.1\n"+line+"\n"), testVocab)
			require.Error(t, err)
			require.True(t, apperr.Is(err, apperr.KindBackendContract))
			require.Contains(t, err.Error(), "label line 2")
		})
	}
}

func TestVocabulary_Classes(t *testing.T) {
	require.Equal(t, 17, testVocab.Classes())
	require.Zero(t, Vocabulary{}.Classes())

	name, ok := testVocab.Name(16)
	require.True(t, ok)
	require.Equal(t, "dog", name)
}
