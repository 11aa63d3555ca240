package codec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type order struct {
	Id    string   `json:"id"`
	Items []string `json:"items"`
}

func TestConvertNormalizesIntoDeclaredType(t *testing.T) {
	jc := NewJsonCodec()

	v, err := Convert(jc, map[string]any{"id": "o-1", "items": []any{"a"}}, reflect.TypeOf(order{}))
	require.NoError(t, err)
	require.Equal(t, order{Id: "o-1", Items: []string{"a"}}, v)

	v, err = Convert(jc, map[string]any{"id": "o-2"}, reflect.TypeOf(&order{}))
	require.NoError(t, err)
	require.Equal(t, &order{Id: "o-2"}, v)

	v, err = Convert(jc, 42, reflect.TypeOf(0))
	require.NoError(t, err)
	require.Equal(t, 42, v)

	_, err = Convert(jc, "not a number", reflect.TypeOf(0))
	require.Error(t, err)
}

func TestConvertKeepsValuesOfInterfaceType(t *testing.T) {
	v, err := Convert(NewJsonCodec(), 42, reflect.TypeOf((*any)(nil)).Elem())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestProtoCodec(t *testing.T) {
	pc, err := New(PROTO)
	require.NoError(t, err)

	data, err := pc.Encode(wrapperspb.Int64(42))
	require.NoError(t, err)
	v, err := pc.Decode(data, reflect.TypeOf(&wrapperspb.Int64Value{}))
	require.NoError(t, err)
	require.True(t, proto.Equal(wrapperspb.Int64(42), v.(proto.Message)))

	data, err = pc.Encode(order{Id: "o-1"})
	require.NoError(t, err)
	v, err = pc.Decode(data, reflect.TypeOf(order{}))
	require.NoError(t, err)
	require.Equal(t, order{Id: "o-1"}, v)
}

func TestDecodeAs(t *testing.T) {
	o, err := DecodeAs[order](NewJsonCodec(), []byte(`{"id":"o-9"}`))
	require.NoError(t, err)
	require.Equal(t, "o-9", o.Id)
}
