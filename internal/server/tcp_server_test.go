package server

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"comms-middleware/internal/protocol/carframe"
)

func TestDrainFrames(t *testing.T) {
	scanner, err := carframe.NewFrameScanner(carframe.KindElectric)
	require.NoError(t, err)

	frame := []byte{0x7F, 0, 0, 0, 0, 0, 0x7F, 0x64, 0x00, 0x32, 0x00}
	buf := append(bytes.Repeat(frame, 2), frame[:4]...)

	var got []carframe.ElectricFrame
	rest, err := drainFrames(buf, scanner, func(raw []byte) {
		f, err := carframe.DecodeElectric(carframe.NewReader(raw))
		require.NoError(t, err)
		got = append(got, f)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, got[0], got[1])
	require.Equal(t, uint16(50), got[0].BatteryLevelPercentage)
	require.Equal(t, frame[:4], rest)

	// remainder of the split frame arrives
	rest = append(rest, frame[4:]...)
	got = got[:0]
	rest, err = drainFrames(rest, scanner, func(raw []byte) {
		f, err := carframe.DecodeElectric(carframe.NewReader(raw))
		require.NoError(t, err)
		got = append(got, f)
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Ignition)
	require.Empty(t, rest)
}

func TestDrainFramesPartialOnly(t *testing.T) {
	scanner, err := carframe.NewFrameScanner(carframe.KindFuel)
	require.NoError(t, err)

	buf := make([]byte, 5)
	calls := 0
	rest, err := drainFrames(buf, scanner, func([]byte) { calls++ })
	require.NoError(t, err)
	require.Zero(t, calls)
	require.Len(t, rest, 5)
}
