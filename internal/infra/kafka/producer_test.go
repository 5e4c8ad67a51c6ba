package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"comms-middleware/internal/config"
	"comms-middleware/internal/infra/mq"
)

type reading struct {
	Speed uint16 `json:"speed"`
}

func newTestProducer(t *testing.T, encoding string) *KafkaProducer {
	t.Helper()
	p, err := NewKafkaProducer(config.KafkaConfig{
		Brokers: []string{"127.0.0.1:9092"},
		Topic:   "frames",
	}, encoding, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func contentType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == headerContentType {
			return string(h.Value)
		}
	}
	return ""
}

func TestBuildMessageTopicFallback(t *testing.T) {
	p := newTestProducer(t, mq.EncodingJSON)

	msg, err := p.buildMessage("", "car-1", reading{Speed: 80})
	require.NoError(t, err)
	require.Equal(t, "frames", msg.Topic)
	require.Equal(t, []byte("car-1"), msg.Key)

	msg, err = p.buildMessage("vehicle_data", "car-1", reading{Speed: 80})
	require.NoError(t, err)
	require.Equal(t, "vehicle_data", msg.Topic)
}

func TestBuildMessageJSON(t *testing.T) {
	p := newTestProducer(t, mq.EncodingJSON)

	msg, err := p.buildMessage("", "car-1", reading{Speed: 80})
	require.NoError(t, err)
	require.Equal(t, mq.ContentTypeJSON, contentType(msg))

	var got reading
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, uint16(80), got.Speed)
}

func TestBuildMessageCBOR(t *testing.T) {
	p := newTestProducer(t, mq.EncodingCBOR)

	msg, err := p.buildMessage("", "car-1", reading{Speed: 80})
	require.NoError(t, err)
	require.Equal(t, mq.ContentTypeCBOR, contentType(msg))

	var got map[string]interface{}
	require.NoError(t, cbor.Unmarshal(msg.Value, &got))
	require.Equal(t, uint64(80), got["speed"])
}

func TestProduceUnsupportedEncoding(t *testing.T) {
	p := newTestProducer(t, "xml")

	_, err := p.buildMessage("", "car-1", reading{})
	require.Error(t, err)
	require.Error(t, p.Produce(context.Background(), "", "car-1", reading{}))
}
