package telemetry

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"comms-middleware/internal/protocol/carframe"
	"comms-middleware/internal/usecase"
)

func newTestHandler(kind carframe.Kind) (*Handler, *recordingDispatcher, *fakeConn) {
	d := &recordingDispatcher{}
	h := NewHandler(kind, "car-9", NewConnRegistry(zap.NewNop()), d, zap.NewNop())
	c := &fakeConn{addr: "192.168.1.20:5555"}
	h.OnConnect(c)
	return h, d, c
}

func TestHandleFrameFuel(t *testing.T) {
	h, d, c := newTestHandler(carframe.KindFuel)
	raw, err := hex.DecodeString("7F00000000007F" + "3C00" + "007F" + "DC05" + "3200" + "5F00")
	require.NoError(t, err)

	frame, err := h.HandleFrame(c, raw)
	require.NoError(t, err)
	ff, ok := frame.(carframe.FuelFrame)
	require.True(t, ok)
	require.True(t, ff.Battery12vNotCharging)
	require.True(t, ff.Ignition)
	require.Equal(t, uint16(60), ff.Speed)
	require.False(t, ff.OilPressureLow)
	require.True(t, ff.SparkPlugOn)
	require.Equal(t, uint16(1500), ff.RPM)
	require.Equal(t, uint16(50), ff.FuelLevel)
	require.Equal(t, uint16(95), ff.EngineTemperature)

	require.Len(t, d.items, 1)
	payload, ok := d.items[0].(usecase.MQPayload)
	require.True(t, ok)
	require.Equal(t, "FUEL", payload.Type)
	require.Equal(t, "car-9", payload.VehicleID)
	require.Equal(t, c.addr, payload.Source)
	require.Equal(t, ff, payload.Data)

	sess, ok := h.Registry.Get(c.addr)
	require.True(t, ok)
	require.Equal(t, uint64(1), sess.Frames())
}

func TestHandleFrameElectric(t *testing.T) {
	h, d, c := newTestHandler(carframe.KindElectric)
	frame, err := h.HandleFrame(c, []byte{0x7F, 0, 0, 0, 0, 0, 0, 0x64, 0x00, 0x32, 0x00})
	require.NoError(t, err)
	require.Equal(t, carframe.KindElectric, h.Kind())

	ef := frame.(carframe.ElectricFrame)
	require.Equal(t, uint16(100), ef.Speed)
	require.Equal(t, uint16(50), ef.BatteryLevelPercentage)
	require.Equal(t, "ELECTRIC", d.items[0].(usecase.MQPayload).Type)
}

func TestHandleFrameShortBuffer(t *testing.T) {
	h, d, c := newTestHandler(carframe.KindFuel)
	frame, err := h.HandleFrame(c, bytes.Repeat([]byte{0x7F}, carframe.FuelFrameSize-1))
	require.ErrorIs(t, err, carframe.ErrUnderflow)
	require.Nil(t, frame)
	require.Empty(t, d.items)

	sess, _ := h.Registry.Get(c.addr)
	require.Zero(t, sess.Frames())

	h.OnDisconnect(c.addr)
	require.Zero(t, h.Registry.Count())
}

func TestHandleFrameWithoutDispatcher(t *testing.T) {
	h := NewHandler(carframe.KindElectric, "car-9", NewConnRegistry(zap.NewNop()), nil, zap.NewNop())
	_, err := h.HandleFrame(&fakeConn{addr: "x:1"}, make([]byte, carframe.ElectricFrameSize))
	require.NoError(t, err)
}
