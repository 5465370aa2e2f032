package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/routegraph/internal/eventbus"
	events "github.com/hanpama/routegraph/internal/events"
	reqid "github.com/hanpama/routegraph/internal/reqid"
	"github.com/hanpama/routegraph/internal/request"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches bus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string, bus *eventbus.Bus) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	detach := Attach(bus, otel.Tracer("routegraph"))
	return func(ctx context.Context) error {
		detach()
		return tp.Shutdown(ctx)
	}, nil
}

// Attach subscribes span producers for dispatch and publish events to bus.
// The returned func removes them.
func Attach(bus *eventbus.Bus, tracer trace.Tracer) (detach func()) {
	s := &subscriber{tracer: tracer}
	return s.register(bus)
}

type subscriber struct {
	tracer       trace.Tracer
	resolveSpans sync.Map // rid|kind|target.method|path -> trace.Span
	publishSpans sync.Map // rid|topic -> trace.Span
}

func resolveKey(ctx context.Context, kind, target, method string, info *request.Info) string {
	rid, _ := reqid.FromContext(ctx)
	return rid + "|" + kind + "|" + target + "." + method + "|" + info.PathString()
}

func publishKey(ctx context.Context, topic string) string {
	rid, _ := reqid.FromContext(ctx)
	return rid + "|" + topic
}

func (s *subscriber) register(bus *eventbus.Bus) func() {
	unsubs := []func(){
		eventbus.Subscribe(bus, func(ctx context.Context, e events.ResolveStart) {
			name := "resolve"
			if e.Kind != "" {
				name = "resolve." + e.Kind
			}
			_, span := s.tracer.Start(ctx, name)
			attrs := []attribute.KeyValue{
				attribute.String("routegraph.handler", e.Target+"."+e.Method),
			}
			if e.Info != nil {
				attrs = append(attrs,
					attribute.String("graphql.field.name", e.Info.FieldName),
					attribute.String("graphql.field.parent", e.Info.ParentType),
					attribute.String("graphql.field.path", e.Info.PathString()),
				)
			}
			span.SetAttributes(attrs...)
			s.resolveSpans.Store(resolveKey(ctx, e.Kind, e.Target, e.Method, e.Info), span)
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.ResolveFinish) {
			v, ok := s.resolveSpans.LoadAndDelete(resolveKey(ctx, e.Kind, e.Target, e.Method, e.Info))
			if !ok {
				return
			}
			span := v.(trace.Span)
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.PublishStart) {
			_, span := s.tracer.Start(ctx, "pubsub.publish")
			span.SetAttributes(attribute.String("messaging.destination.name", e.Topic))
			s.publishSpans.Store(publishKey(ctx, e.Topic), span)
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.PublishFinish) {
			v, ok := s.publishSpans.LoadAndDelete(publishKey(ctx, e.Topic))
			if !ok {
				return
			}
			span := v.(trace.Span)
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
