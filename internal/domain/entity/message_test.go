package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInboundMessage_Kind(t *testing.T) {
	photo := []PhotoRef{{FileID: "small", Width: 90}, {FileID: "big", Width: 1280}}

	cases := []struct {
		name string
		msg  InboundMessage
		want MessageKind
	}{
		{"photo only", InboundMessage{Photos: photo}, KindPhoto},
		{"photo with caption text", InboundMessage{Text: "look at this", Photos: photo}, KindPhoto},
		{"text", InboundMessage{Text: "hello"}, KindText},
		{"empty", InboundMessage{}, KindOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.msg.Kind())
		})
	}
}

func TestInboundMessage_LargestPhoto(t *testing.T) {
	msg := InboundMessage{Photos: []PhotoRef{{FileID: "small"}, {FileID: "medium"}, {FileID: "big"}}}

	p, ok := msg.LargestPhoto()
	require.True(t, ok)
	require.Equal(t, "big", p.FileID)

	_, ok = InboundMessage{}.LargestPhoto()
	require.False(t, ok)
}

func TestReply_Quoting(t *testing.T) {
	r := NewTextReply(10, "hi")
	require.False(t, r.IsThreaded())

	q := r.Quoting(42)
	require.True(t, q.IsThreaded())
	require.Equal(t, 42, q.ReplyTo)
	require.False(t, r.IsThreaded())
}
