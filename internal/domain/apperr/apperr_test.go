package apperr

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap_KeepsKindThroughFmtWrapping(t *testing.T) {
	err := Wrap(KindPersistence, io.ErrUnexpectedEOF, "insert summary")
	wrapped := fmt.Errorf("handler: %w", err)

	require.True(t, Is(wrapped, KindPersistence))
	require.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
	require.Equal(t, "insert summary: unexpected EOF", err.Error())
}

func TestWrap_Nil(t *testing.T) {
	require.NoError(t, Wrap(KindInput, nil, "nothing"))
}

func TestKindOf_ForeignError(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(io.EOF))
	require.False(t, Is(nil, KindUnknown))
}

func TestWrap_OuterKindWins(t *testing.T) {
	inner := New(KindNotFound, "no such key")
	outer := Wrap(KindRemoteService, inner, "fetch image")
	require.Equal(t, KindRemoteService, KindOf(outer))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInput:           http.StatusBadRequest,
		KindNotFound:        http.StatusNotFound,
		KindRemoteService:   http.StatusBadGateway,
		KindBackendContract: http.StatusBadGateway,
		KindPersistence:     http.StatusInternalServerError,
		KindUnknown:         http.StatusInternalServerError,
	}
	for kind, status := range cases {
		require.Equal(t, status, HTTPStatus(New(kind, "x")), kind.String())
	}
}

func TestWrapDefault(t *testing.T) {
	classified := New(KindBackendContract, "bad json")
	require.Equal(t, KindBackendContract, KindOf(WrapDefault(KindRemoteService, classified, "detect")))
	require.Equal(t, KindRemoteService, KindOf(WrapDefault(KindRemoteService, io.EOF, "detect")))
	require.NoError(t, WrapDefault(KindInput, nil, "nothing"))
}
