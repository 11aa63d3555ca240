package codec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
)

// Codec turns payloads into bytes and back into a declared type.
type Codec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte, t reflect.Type) (any, error)
}

type Type string

const JSON Type = "JSON"
const PROTO Type = "PROTO"

func New(t Type) (Codec, error) {
	switch t {
	case JSON, "":
		return NewJsonCodec(), nil
	case PROTO:
		return NewProtoCodec(), nil
	}
	return nil, fmt.Errorf("unknown encoder decoder type %s", t)
}

// Convert normalizes value into t by encoding and decoding it. Values that
// already have type t are returned as is.
func Convert(c Codec, value any, t reflect.Type) (any, error) {
	if t == nil || value == nil {
		return value, nil
	}
	vt := reflect.TypeOf(value)
	if vt == t || (t.Kind() == reflect.Interface && vt.Implements(t)) {
		return value, nil
	}
	data, err := c.Encode(value)
	if err != nil {
		return nil, err
	}
	return c.Decode(data, t)
}

func DecodeAs[T any](c Codec, data []byte) (T, error) {
	var zero T
	v, err := c.Decode(data, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// newValue allocates a *T for t, or a *E when t is the pointer type *E.
func newValue(t reflect.Type) (ptr reflect.Value, isPtr bool) {
	if t.Kind() == reflect.Ptr {
		return reflect.New(t.Elem()), true
	}
	return reflect.New(t), false
}

type JsonCodec struct{}

var _ Codec = new(JsonCodec)

func NewJsonCodec() *JsonCodec {
	return &JsonCodec{}
}

func (jc *JsonCodec) Encode(value any) ([]byte, error) {
	res, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (jc *JsonCodec) Decode(data []byte, t reflect.Type) (any, error) {
	ptr, isPtr := newValue(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("decode into %s: %w", t, err)
	}
	if isPtr {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

var protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

// ProtoCodec uses the protobuf wire format for proto messages and falls
// back to JSON for everything else.
type ProtoCodec struct {
	fallback *JsonCodec
}

var _ Codec = new(ProtoCodec)

func NewProtoCodec() *ProtoCodec {
	return &ProtoCodec{fallback: NewJsonCodec()}
}

func (pc *ProtoCodec) Encode(value any) ([]byte, error) {
	if m, ok := value.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return pc.fallback.Encode(value)
}

func (pc *ProtoCodec) Decode(data []byte, t reflect.Type) (any, error) {
	if t.Kind() != reflect.Ptr || !t.Implements(protoMessageType) {
		return pc.fallback.Decode(data, t)
	}
	m := reflect.New(t.Elem()).Interface().(proto.Message)
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode into %s: %w", t, err)
	}
	return m, nil
}
