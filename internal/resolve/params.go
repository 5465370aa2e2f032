package resolve

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/hanpama/routegraph/internal/buildctx"
	"github.com/hanpama/routegraph/internal/eventbus"
	"github.com/hanpama/routegraph/internal/events"
	"github.com/hanpama/routegraph/internal/metadata"
	"github.com/hanpama/routegraph/internal/pubsub"
	"github.com/hanpama/routegraph/internal/request"
	"golang.org/x/sync/errgroup"
)

var (
	requestContextType = reflect.TypeOf((*request.Context)(nil))
	infoType           = reflect.TypeOf((*request.Info)(nil))
	engineType         = reflect.TypeOf((*pubsub.Engine)(nil)).Elem()
	publisherType      = reflect.TypeOf(pubsub.Publisher(nil))
)

// params computes the arguments of fn from metas. Parameters without
// metadata receive the invocation context when typed context.Context and
// the zero value otherwise. Custom resolvers run concurrently.
func (e *Engine) params(data *request.ResolverData, snap buildctx.Snapshot, metas []*metadata.ParamMetadata, fn reflect.Value) ([]reflect.Value, error) {
	ft := fn.Type()
	n := ft.NumIn()
	byIndex := make([]*metadata.ParamMetadata, n)
	for _, m := range metas {
		if m.Index < 0 || m.Index >= n {
			return nil, &ParamError{Method: m.MethodName, Index: m.Index, Kind: string(m.Kind), Err: fmt.Errorf("index out of range for %s", ft)}
		}
		byIndex[m.Index] = m
	}

	custom := make([]any, n)
	g, gctx := errgroup.WithContext(data.Context)
	for i, m := range byIndex {
		if m == nil || m.Kind != metadata.ParamCustom {
			continue
		}
		g.Go(func() error {
			if m.Resolver == nil {
				return &ParamError{Method: m.MethodName, Index: i, Kind: string(m.Kind), Err: errors.New("custom parameter has no resolver")}
			}
			v, err := resolveCustom(gctx, m.Resolver, data)
			if err != nil {
				return &ParamError{Method: m.MethodName, Index: i, Kind: string(m.Kind), Err: err}
			}
			custom[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	conv := snap.Converter()
	args := make([]reflect.Value, n)
	for i, m := range byIndex {
		pt := ft.In(i)
		if m == nil {
			if pt == contextType {
				args[i] = reflect.ValueOf(data.Context)
			} else {
				args[i] = reflect.Zero(pt)
			}
			continue
		}
		v, err := e.param(data, snap, m, pt, custom[i])
		if err != nil {
			return nil, &ParamError{Method: m.MethodName, Index: i, Kind: string(m.Kind), Err: err}
		}
		rv, err := conv.To(v, pt)
		if err != nil {
			return nil, &ParamError{Method: m.MethodName, Index: i, Kind: string(m.Kind), Err: err}
		}
		if err := e.validateParam(snap, m, rv); err != nil {
			return nil, &ParamError{Method: m.MethodName, Index: i, Kind: string(m.Kind), Err: err}
		}
		args[i] = rv
	}
	return args, nil
}

// param returns the raw value of one parameter; the caller converts it.
func (e *Engine) param(data *request.ResolverData, snap buildctx.Snapshot, m *metadata.ParamMetadata, pt reflect.Type, custom any) (any, error) {
	switch m.Kind {
	case metadata.ParamArgs:
		return data.Args, nil
	case metadata.ParamArg:
		return data.Args[m.Name], nil
	case metadata.ParamContext:
		if m.PropertyName != "" {
			if v, ok := data.Context.Get(m.PropertyName); ok {
				return v, nil
			}
			return data.Context.Value(m.PropertyName), nil
		}
		if requestContextType.AssignableTo(pt) {
			return data.Context, nil
		}
		return data.Context.Values(), nil
	case metadata.ParamRoot:
		if m.PropertyName != "" {
			return property(data.Root, m.PropertyName)
		}
		return data.Root, nil
	case metadata.ParamInfo:
		if infoType.AssignableTo(pt) {
			return data.Info, nil
		}
		return nil, fmt.Errorf("info parameter must accept %s, got %s", infoType, pt)
	case metadata.ParamPubSub:
		if m.TriggerKey != "" {
			if !publisherType.AssignableTo(pt) {
				return nil, fmt.Errorf("bound pubsub parameter must accept %s, got %s", publisherType, pt)
			}
			return e.publisher(snap, m.TriggerKey), nil
		}
		if !engineType.AssignableTo(pt) {
			return nil, fmt.Errorf("pubsub parameter must accept %s, got %s", engineType, pt)
		}
		return instrumented{Engine: snap.PubSub, bus: snap.Bus}, nil
	case metadata.ParamCustom:
		return custom, nil
	}
	return nil, fmt.Errorf("unknown param kind %q", m.Kind)
}

// resolveCustom runs r, turning a panic into *PanicError.
func resolveCustom(ctx context.Context, r metadata.ParamResolver, data *request.ResolverData) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = nil, &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return r(ctx, data)
}

func (e *Engine) validateParam(snap buildctx.Snapshot, m *metadata.ParamMetadata, v reflect.Value) error {
	if m.Kind != metadata.ParamArg && m.Kind != metadata.ParamArgs {
		return nil
	}
	enabled := snap.ValidateArgs
	if m.Validate != nil {
		enabled = *m.Validate
	}
	if !enabled {
		return nil
	}
	t := v.Type()
	if t.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return e.validate.Struct(v.Interface())
}

func (e *Engine) publisher(snap buildctx.Snapshot, topic string) pubsub.Publisher {
	engine := instrumented{Engine: snap.PubSub, bus: snap.Bus}
	return pubsub.Bind(engine, topic)
}

// instrumented publishes PublishStart/PublishFinish around Publish.
type instrumented struct {
	pubsub.Engine
	bus *eventbus.Bus
}

func (i instrumented) Publish(ctx context.Context, topic string, payload any) error {
	start := time.Now()
	eventbus.Publish(ctx, i.bus, events.PublishStart{Topic: topic})
	err := i.Engine.Publish(ctx, topic, payload)
	eventbus.Publish(ctx, i.bus, events.PublishFinish{Topic: topic, Err: err, Duration: time.Since(start)})
	return err
}
