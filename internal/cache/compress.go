package cache

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"

	"github.com/LavishGent/stormdrain/internal/types"
)

// valueKind describes how a value is laid out in its encoded form.
type valueKind uint8

const (
	kindString valueKind = iota + 1
	kindBytes
	kindJSON
)

func (k valueKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindBytes:
		return "bytes"
	case kindJSON:
		return "json"
	default:
		return "unknown"
	}
}

func parseValueKind(s string) (valueKind, bool) {
	switch s {
	case "string":
		return kindString, true
	case "bytes":
		return kindBytes, true
	case "json":
		return kindJSON, true
	default:
		return 0, false
	}
}

// encoded is a value ready for storage. Uncompressed values keep the
// original; compressed values keep only the payload.
type encoded struct {
	value   any
	payload []byte
	typ     reflect.Type
	kind    valueKind
	mode    types.CompressionMode
	size    int64
}

// codec picks a compression mode per value: s2 for string-like values and
// zstd over the serialized form for everything else.
type codec struct {
	serializer types.Serializer
	encoder    *zstd.Encoder
	decoder    *zstd.Decoder
	threshold  int
	enabled    bool
}

func newCodec(serializer types.Serializer, enabled bool, threshold int) (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &codec{
		serializer: serializer,
		encoder:    enc,
		decoder:    dec,
		threshold:  threshold,
		enabled:    enabled,
	}, nil
}

// raw returns the uncompressed encoded form of v.
func (c *codec) raw(v any) ([]byte, valueKind, error) {
	switch val := v.(type) {
	case string:
		return []byte(val), kindString, nil
	case []byte:
		return val, kindBytes, nil
	default:
		data, err := c.serializer.Marshal(v)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", types.ErrSerializationFailed, err)
		}
		return data, kindJSON, nil
	}
}

func (c *codec) encode(v any) (*encoded, error) {
	data, kind, err := c.raw(v)
	if err != nil {
		return nil, err
	}

	enc := &encoded{
		kind: kind,
		typ:  reflect.TypeOf(v),
		size: int64(len(data)),
	}

	if !c.shouldCompress(len(data)) || !c.lossless(v, data, kind) {
		enc.value = v
		enc.mode = types.CompressionNone
		return enc, nil
	}

	enc.payload, enc.mode = c.compress(data, kind)
	enc.size = int64(len(enc.payload))
	return enc, nil
}

func (c *codec) shouldCompress(n int) bool {
	return c.enabled && n >= c.threshold
}

// lossless reports whether the serialized form decodes back to a value
// deeply equal to v. Values that lose type detail through the serializer,
// such as numbers held in interfaces, stay uncompressed.
func (c *codec) lossless(v any, data []byte, kind valueKind) bool {
	if kind != kindJSON {
		return true
	}
	typ := reflect.TypeOf(v)
	if typ == nil {
		return false
	}
	ptr := reflect.New(typ)
	if err := c.serializer.Unmarshal(data, ptr.Interface()); err != nil {
		return false
	}
	return reflect.DeepEqual(ptr.Elem().Interface(), v)
}

func (c *codec) compress(data []byte, kind valueKind) ([]byte, types.CompressionMode) {
	if kind == kindJSON {
		return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), types.CompressionZstd
	}
	return s2.Encode(nil, data), types.CompressionS2
}

// decode restores a compressed payload. typ may be nil for entries restored
// from a snapshot, in which case composite values come back as json.RawMessage.
func (c *codec) decode(payload []byte, mode types.CompressionMode, kind valueKind, typ reflect.Type) (any, error) {
	var data []byte
	var err error

	switch mode {
	case types.CompressionS2:
		data, err = s2.Decode(nil, payload)
	case types.CompressionZstd:
		data, err = c.decoder.DecodeAll(payload, nil)
	case types.CompressionNone:
		data = payload
	default:
		err = fmt.Errorf("unknown compression mode %d", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrCorruptEntry, err)
	}

	return c.materialize(data, kind, typ)
}

func (c *codec) materialize(data []byte, kind valueKind, typ reflect.Type) (any, error) {
	switch kind {
	case kindString:
		return string(data), nil
	case kindBytes:
		return data, nil
	case kindJSON:
		if typ == nil {
			if !json.Valid(data) {
				return nil, fmt.Errorf("%w: invalid json payload", types.ErrCorruptEntry)
			}
			return json.RawMessage(data), nil
		}
		ptr := reflect.New(typ)
		if err := c.serializer.Unmarshal(data, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrCorruptEntry, err)
		}
		return ptr.Elem().Interface(), nil
	default:
		return nil, fmt.Errorf("%w: unknown value kind %d", types.ErrCorruptEntry, kind)
	}
}

func (c *codec) close() {
	c.encoder.Close()
	c.decoder.Close()
}
