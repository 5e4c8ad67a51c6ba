package mq

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"

	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
)

// cborEnc 以 RFC3339Nano 字符串编码时间, 与 JSON 保持一致的精度
var cborEnc = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Marshal encodes a message body and reports its content type.
// An empty encoding means JSON.
func Marshal(encoding string, data interface{}) ([]byte, string, error) {
	switch encoding {
	case "", EncodingJSON:
		body, err := json.Marshal(data)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal data: %w", err)
		}
		return body, ContentTypeJSON, nil
	case EncodingCBOR:
		body, err := cborEnc.Marshal(data)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal data: %w", err)
		}
		return body, ContentTypeCBOR, nil
	default:
		return nil, "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}
