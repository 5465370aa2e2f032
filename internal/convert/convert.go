// Package convert coerces plain request values (maps, slices, scalars) into
// typed Go values.
package convert

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DateMode selects how time.Time values are read.
type DateMode string

const (
	// DateISO reads RFC 3339 strings.
	DateISO DateMode = "isoDate"
	// DateTimestamp reads Unix milliseconds.
	DateTimestamp DateMode = "timestamp"
)

// ScalarFunc parses a plain value into a custom scalar type.
type ScalarFunc func(v any) (any, error)

// Converter coerces values. The zero value reads ISO dates and has no
// custom scalars.
type Converter struct {
	DateMode DateMode
	Scalars  map[reflect.Type]ScalarFunc
}

var timeType = reflect.TypeOf(time.Time{})

// To converts v into a value assignable to t. Nil yields the zero value.
func (c Converter) To(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	vt := reflect.TypeOf(v)
	if vt.AssignableTo(t) {
		return reflect.ValueOf(v), nil
	}
	if t.Kind() == reflect.Pointer {
		elem, err := c.To(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}
	if t.Kind() == reflect.Interface && vt.Implements(t) {
		return reflect.ValueOf(v), nil
	}

	out := reflect.New(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			c.scalarHook,
			c.dateHook,
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(v); err != nil {
		return reflect.Value{}, fmt.Errorf("convert %T to %s: %w", v, t, err)
	}
	return out.Elem(), nil
}

func (c Converter) scalarHook(from, to reflect.Type, data any) (any, error) {
	if fn, ok := c.Scalars[to]; ok && from != to {
		return fn(data)
	}
	return data, nil
}

func (c Converter) dateHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from == timeType {
		return data, nil
	}
	if c.DateMode == DateTimestamp {
		switch ms := data.(type) {
		case int:
			return time.UnixMilli(int64(ms)).UTC(), nil
		case int64:
			return time.UnixMilli(ms).UTC(), nil
		case float64:
			return time.UnixMilli(int64(ms)).UTC(), nil
		}
	}
	if s, ok := data.(string); ok {
		return time.Parse(time.RFC3339Nano, s)
	}
	return data, nil
}

// Into converts v to T.
func Into[T any](c Converter, v any) (T, error) {
	var zero T
	rv, err := c.To(v, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}
