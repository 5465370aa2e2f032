package resolve

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// method returns the bound method name of inst.
func method(inst any, name string) (reflect.Value, error) {
	v := reflect.ValueOf(inst)
	if !v.IsValid() {
		return reflect.Value{}, &MethodNotFoundError{Type: "<nil>", Method: name}
	}
	m := v.MethodByName(name)
	if !m.IsValid() {
		return reflect.Value{}, &MethodNotFoundError{Type: v.Type().String(), Method: name}
	}
	return m, nil
}

// call invokes fn and normalizes its results. Supported shapes are (),
// (v), (error) and (v, error). Panics become *PanicError.
func call(fn reflect.Value, args []reflect.Value) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	var out []reflect.Value
	if fn.Type().IsVariadic() {
		out = fn.CallSlice(args)
	} else {
		out = fn.Call(args)
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if fn.Type().Out(0).Implements(errorType) {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	case 2:
		return out[0].Interface(), asError(out[1])
	}
	return nil, fmt.Errorf("resolve: unsupported result shape %s", fn.Type())
}

func asError(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface().(error)
}

// property reads name from v: a map key, a struct field, or the result of
// a zero-argument method. Missing map keys read as nil.
func property(v any, names ...string) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		for _, n := range names {
			if n == "" {
				continue
			}
			if e := rv.MapIndex(reflect.ValueOf(n).Convert(rv.Type().Key())); e.IsValid() {
				return e.Interface(), nil
			}
		}
		return nil, nil
	}

	name := names[0]
	if m := rv.MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 {
		return call(m, nil)
	}
	sv := rv
	for sv.Kind() == reflect.Pointer {
		if sv.IsNil() {
			return nil, nil
		}
		sv = sv.Elem()
	}
	if sv.Kind() == reflect.Struct {
		if f := sv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	return nil, fmt.Errorf("%w %q on %T", ErrNoProperty, name, v)
}
