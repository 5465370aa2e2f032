// Package interceptors provides ready-made dispatch interceptors: logging,
// Prometheus metrics, circuit breaking and required context values.
package interceptors

import (
	"context"
	"time"

	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/reqid"
	"github.com/hanpama/routegraph/internal/request"
	"go.uber.org/zap"
)

// Logging logs every dispatch at debug and failed ones at warn.
func Logging(logger *zap.Logger) *middleware.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return middleware.Fn(func(ctx context.Context, data *request.ResolverData, next middleware.NextFunc, _ []string) (any, error) {
		start := time.Now()
		res, err := next()
		fields := dispatchFields(ctx, data)
		fields = append(fields, zap.Duration("duration", time.Since(start)))
		if err != nil {
			logger.Warn("dispatch failed", append(fields, zap.Error(err))...)
			return res, err
		}
		logger.Debug("dispatched", fields...)
		return res, nil
	})
}

func dispatchFields(ctx context.Context, data *request.ResolverData) []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if rid, ok := reqid.FromContext(ctx); ok {
		fields = append(fields, zap.String("request_id", rid))
	}
	if data.Info != nil {
		fields = append(fields, zap.String("field", data.Info.FieldName), zap.String("path", data.Info.PathString()))
		if kind, ok := data.Info.Kind(); ok {
			fields = append(fields, zap.String("kind", string(kind)))
		}
	}
	return fields
}

// label returns parentType.fieldName for data.
func label(data *request.ResolverData) string {
	if data.Info == nil {
		return "unknown"
	}
	return data.Info.ParentType + "." + data.Info.FieldName
}
