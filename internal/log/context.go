package log

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog"
)

type requestId struct{}

func RequestIDFromContext(c context.Context) string {
	if v, ok := c.Value(requestId{}).(string); ok {
		return v
	}
	return ""
}

func AttachRequestIDToContext(c context.Context, h string) context.Context {
	return context.WithValue(c, requestId{}, h)
}

func AttachTraceIdFromContext() zerolog.HookFunc {
	return func(e *zerolog.Event, level zerolog.Level, message string) {
		c := e.GetCtx()
		spanCtx := trace.SpanContextFromContext(c)

		if reqId := RequestIDFromContext(c); reqId != "" {
			e.Str(KeyRequestID, reqId)
		}
		if spanCtx.IsValid() {
			e.Str(KeyTraceID, spanCtx.TraceID().String()).
				Str(KeySpanID, spanCtx.SpanID().String())
		}
	}
}
