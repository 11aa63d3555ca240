package codec

import (
	"reflect"
	"time"
	"unsafe"

	"google.golang.org/protobuf/proto"
)

var timeType = reflect.TypeOf(time.Time{})

type pointerKey struct {
	addr uintptr
	typ  reflect.Type
}

// DeepCopy returns an independent copy of value with the same dynamic type.
// Maps, slices, pointers and structs are copied recursively, unexported
// fields included. Channels and funcs are shared. Pointers seen twice stay
// aliased in the copy.
func DeepCopy(value any) any {
	if value == nil {
		return nil
	}
	if m, ok := value.(proto.Message); ok {
		return proto.Clone(m)
	}
	src := reflect.ValueOf(value)
	dst := reflect.New(src.Type()).Elem()
	c := &deepCopier{seen: make(map[pointerKey]reflect.Value)}
	c.copy(dst, src)
	return dst.Interface()
}

type deepCopier struct {
	seen map[pointerKey]reflect.Value
}

// copy writes a copy of src into dst. dst is always addressable and src is
// never a read-only view of an unexported field.
func (c *deepCopier) copy(dst reflect.Value, src reflect.Value) {
	if src.Type() == timeType {
		dst.Set(src)
		return
	}
	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		key := pointerKey{addr: src.Pointer(), typ: src.Type()}
		if p, ok := c.seen[key]; ok {
			dst.Set(p)
			return
		}
		p := reflect.New(src.Type().Elem())
		c.seen[key] = p
		c.copy(p.Elem(), src.Elem())
		dst.Set(p)
	case reflect.Interface:
		if src.IsNil() {
			return
		}
		elem := src.Elem()
		v := reflect.New(elem.Type()).Elem()
		c.copy(v, elem)
		dst.Set(v)
	case reflect.Map:
		if src.IsNil() {
			return
		}
		m := reflect.MakeMapWithSize(src.Type(), src.Len())
		iter := src.MapRange()
		for iter.Next() {
			k := reflect.New(src.Type().Key()).Elem()
			c.copy(k, iter.Key())
			v := reflect.New(src.Type().Elem()).Elem()
			c.copy(v, iter.Value())
			m.SetMapIndex(k, v)
		}
		dst.Set(m)
	case reflect.Slice:
		if src.IsNil() {
			return
		}
		s := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			c.copy(s.Index(i), src.Index(i))
		}
		dst.Set(s)
	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			c.copy(dst.Index(i), src.Index(i))
		}
	case reflect.Struct:
		if !src.CanAddr() {
			tmp := reflect.New(src.Type()).Elem()
			tmp.Set(src)
			src = tmp
		}
		for i := 0; i < src.NumField(); i++ {
			df, sf := dst.Field(i), src.Field(i)
			if !df.CanSet() {
				df = reflect.NewAt(df.Type(), unsafe.Pointer(df.UnsafeAddr())).Elem()
				sf = reflect.NewAt(sf.Type(), unsafe.Pointer(sf.UnsafeAddr())).Elem()
			}
			c.copy(df, sf)
		}
	default:
		dst.Set(src)
	}
}
