package client

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const capture = `
# electric car, parked
7F 00 00 00 00 00 00 64 00 32 00
00:00:00:00:00:00:7F:0A:00:14:00   # moving

`

func TestLoadHexFrames(t *testing.T) {
	frames, err := LoadHexFrames(strings.NewReader(capture))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, []byte{0x7F, 0, 0, 0, 0, 0, 0, 0x64, 0, 0x32, 0}, frames[0])
	require.Equal(t, byte(0x7F), frames[1][6])
}

func TestLoadHexFramesBadLine(t *testing.T) {
	_, err := LoadHexFrames(strings.NewReader("7F00\nZZ\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestReplayWritesFramesInOrder(t *testing.T) {
	frames := [][]byte{{1, 2}, {3}, {4, 5, 6}}
	var out bytes.Buffer
	rp := &Replayer{Interval: time.Millisecond}
	n, err := rp.Replay(context.Background(), &out, frames)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, out.Bytes())
}

func TestReplayLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	rp := &Replayer{Interval: 5 * time.Millisecond, Loop: true}
	n, err := rp.Replay(ctx, &out, [][]byte{{0x7F}})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, n, 1)
	require.Equal(t, n, out.Len())
}
