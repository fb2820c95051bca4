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
	"fmt"
	"log/slog"
	"strings"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"tracing-demo/pkg/log"
	"tracing-demo/pkg/metrics"
)

// SpanEvents 格式化层为 span 生命周期输出的日志行
type SpanEvents uint8

const (
	SpanEventsNew SpanEvents = 1 << iota
	SpanEventsClose

	SpanEventsNone SpanEvents = 0
	SpanEventsFull            = SpanEventsNew | SpanEventsClose
)

// ParseSpanEvents none | new | close | full
func ParseSpanEvents(s string) (SpanEvents, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return SpanEventsNone, nil
	case "new":
		return SpanEventsNew, nil
	case "close":
		return SpanEventsClose, nil
	case "full":
		return SpanEventsFull, nil
	}
	return SpanEventsNone, fmt.Errorf("未知 span_events %q", s)
}

// lifecycleProcessor 在 span 打开/关闭时经格式化层输出 new / close 行
type lifecycleProcessor struct {
	logger *slog.Logger
	events SpanEvents
}

func (p *lifecycleProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if p.events&SpanEventsNew == 0 {
		return
	}
	if parent == nil {
		parent = context.Background()
	}
	attrs := s.Attributes()
	ctx := log.ContextWithSpan(withoutSpanEvents(parent), s.Name(), slogAttrs(attrs))
	p.logger.LogAttrs(ctx, spanLevel(attrs), "new")
}

func (p *lifecycleProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.events&SpanEventsClose == 0 {
		return
	}
	attrs := s.Attributes()
	ctx := log.ContextWithSpan(withoutSpanEvents(context.Background()), s.Name(), slogAttrs(attrs))
	p.logger.LogAttrs(ctx, spanLevel(attrs), "close",
		slog.Duration("time.busy", s.EndTime().Sub(s.StartTime())))
}

func (p *lifecycleProcessor) Shutdown(context.Context) error   { return nil }
func (p *lifecycleProcessor) ForceFlush(context.Context) error { return nil }

// metricsProcessor 统计 span 打开、关闭与耗时
type metricsProcessor struct {
	m *metrics.Metrics
}

func (p *metricsProcessor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	p.m.SpansStarted.WithLabelValues(s.Name()).Inc()
}

func (p *metricsProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	status := strings.ToLower(s.Status().Code.String())
	p.m.SpansEnded.WithLabelValues(s.Name(), status).Inc()
	p.m.SpanDuration.WithLabelValues(s.Name()).Observe(s.EndTime().Sub(s.StartTime()).Seconds())
}

func (p *metricsProcessor) Shutdown(context.Context) error   { return nil }
func (p *metricsProcessor) ForceFlush(context.Context) error { return nil }
