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
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tracing-demo/pkg/log"
)

type spanConfig struct {
	level  slog.Level
	fields []slog.Attr
}

// SpanOption 插桩选项
type SpanOption func(*spanConfig)

// WithLevel span 级别，默认 INFO
func WithLevel(l slog.Level) SpanOption {
	return func(c *spanConfig) { c.level = l }
}

// WithFields 记录为 span 属性，同时出现在 span 内日志行的字段中（通常为函数参数）
func WithFields(fields ...slog.Attr) SpanOption {
	return func(c *spanConfig) { c.fields = append(c.fields, fields...) }
}

// Span 作用域句柄：Start 获取，End 释放；End 可重复调用，仅首次生效
type Span struct {
	span trace.Span
	once sync.Once
}

// Start 打开名为 name 的 span，返回携带该 span 的 ctx；调用方须在所有返回路径上 End
func Start(ctx context.Context, tracer trace.Tracer, name string, opts ...SpanOption) (context.Context, *Span) {
	cfg := spanConfig{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(&cfg)
	}
	kvs := append([]attribute.KeyValue{attribute.String(LevelKey, cfg.level.String())}, keyValues(cfg.fields)...)
	ctx, s := tracer.Start(ctx, name, trace.WithAttributes(kvs...), trace.WithSpanKind(trace.SpanKindInternal))
	ctx = log.ContextWithSpan(ctx, name, cfg.fields)
	return ctx, &Span{span: s}
}

// End 关闭 span；err 非空时记录错误并置状态为 Error
func (s *Span) End(err error) {
	s.once.Do(func() {
		if err != nil {
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		}
		s.span.End()
	})
}

// SpanContext 返回底层 span 的 SpanContext
func (s *Span) SpanContext() trace.SpanContext {
	return s.span.SpanContext()
}

// Func 用 span 包裹同步函数：调用时打开，返回（含 panic）时关闭
func Func[T any](ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) T, opts ...SpanOption) T {
	ctx, span := Start(ctx, tracer, name, opts...)
	defer span.End(nil)
	return fn(ctx)
}

// FuncErr 用 span 包裹可阻塞的函数；span 在 fn 完全返回后才关闭，返回的错误记录在 span 上
func FuncErr[T any](ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) (T, error), opts ...SpanOption) (res T, err error) {
	ctx, span := Start(ctx, tracer, name, opts...)
	defer func() { span.End(err) }()
	return fn(ctx)
}
