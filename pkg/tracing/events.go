// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tracing-demo/pkg/metrics"
)

type skipEventsKey struct{}

// withoutSpanEvents 标记 ctx：经此 ctx 打出的日志不再写回 span（生命周期日志用）
func withoutSpanEvents(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipEventsKey{}, true)
}

// EventHandler slog.Handler：把 ctx 中正在记录的 span 上发生的日志写为 span 事件
type EventHandler struct {
	level   slog.Leveler
	metrics *metrics.Metrics
	attrs   []slog.Attr
	groups  []string
}

// NewEventHandler m 可为 nil
func NewEventHandler(level slog.Leveler, m *metrics.Metrics) *EventHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &EventHandler{level: level, metrics: m}
}

func (h *EventHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *EventHandler) Handle(ctx context.Context, r slog.Record) error {
	if skip, _ := ctx.Value(skipEventsKey{}).(bool); skip {
		return nil
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return nil
	}
	kvs := make([]attribute.KeyValue, 0, 1+len(h.attrs)+r.NumAttrs())
	kvs = append(kvs, attribute.String(LevelKey, r.Level.String()))
	kvs = append(kvs, keyValues(h.attrs)...)
	r.Attrs(func(a slog.Attr) bool {
		kvs = appendKeyValue(kvs, h.prefix(), a)
		return true
	})
	span.AddEvent(r.Message, trace.WithAttributes(kvs...), trace.WithTimestamp(r.Time))
	if h.metrics != nil {
		h.metrics.LogEvents.WithLabelValues(r.Level.String()).Inc()
	}
	return nil
}

func (h *EventHandler) prefix() string {
	return strings.Join(h.groups, ".")
}

func (h *EventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append([]slog.Attr(nil), h.attrs...)
	p := h.prefix()
	for _, a := range attrs {
		if p != "" {
			a = slog.Group(p, a)
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *EventHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}
