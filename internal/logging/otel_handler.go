// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package logging

import (
	"context"
	"fmt"
	"log/slog"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// otelLogHandler forwards slog records to the OTel logs API before handing
// them to the next handler.
type otelLogHandler struct {
	next   slog.Handler
	logger otellog.Logger
	attrs  []otellog.KeyValue
	group  string
}

func newOTelLogHandler(next slog.Handler, scope string) *otelLogHandler {
	return &otelLogHandler{
		next:   next,
		logger: global.GetLoggerProvider().Logger(scope),
	}
}

func (h *otelLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *otelLogHandler) Handle(ctx context.Context, r slog.Record) error {
	var rec otellog.Record
	rec.SetTimestamp(r.Time)
	rec.SetObservedTimestamp(r.Time)
	rec.SetSeverity(otelSeverity(r.Level))
	rec.SetSeverityText(r.Level.String())
	rec.SetBody(otellog.StringValue(r.Message))
	rec.AddAttributes(h.attrs...)

	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, a := range attrs {
			rec.AddAttributes(h.keyValue(a))
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.AddAttributes(h.keyValue(a))
		return true
	})

	h.logger.Emit(ctx, rec)

	return h.next.Handle(ctx, r)
}

func (h *otelLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	kvs := make([]otellog.KeyValue, 0, len(h.attrs)+len(attrs))
	kvs = append(kvs, h.attrs...)
	for _, a := range attrs {
		kvs = append(kvs, h.keyValue(a))
	}
	return &otelLogHandler{
		next:   h.next.WithAttrs(attrs),
		logger: h.logger,
		attrs:  kvs,
		group:  h.group,
	}
}

func (h *otelLogHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &otelLogHandler{
		next:   h.next.WithGroup(name),
		logger: h.logger,
		attrs:  h.attrs,
		group:  group,
	}
}

func (h *otelLogHandler) keyValue(a slog.Attr) otellog.KeyValue {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return otellog.Bool(key, v.Bool())
	case slog.KindInt64:
		return otellog.Int64(key, v.Int64())
	case slog.KindUint64:
		return otellog.Int64(key, int64(v.Uint64()))
	case slog.KindFloat64:
		return otellog.Float64(key, v.Float64())
	case slog.KindString:
		return otellog.String(key, v.String())
	default:
		return otellog.String(key, fmt.Sprint(v.Any()))
	}
}

func otelSeverity(level slog.Level) otellog.Severity {
	switch {
	case level >= slog.LevelError:
		return otellog.SeverityError
	case level >= slog.LevelWarn:
		return otellog.SeverityWarn
	case level >= slog.LevelInfo:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}
