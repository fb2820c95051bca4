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

package demo

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel/trace"

	"tracing-demo/pkg/errors"
	"tracing-demo/pkg/tracing"
)

const (
	// TraceMeSpan 同步加法的 span 名
	TraceMeSpan = "trace_me"
	// FooSpan 异步等待的 span 名
	FooSpan = "Handler::run"
	// FooMessage Foo 等待结束后输出的事件
	FooMessage = "Inside foo"
)

// maxWaitMS time.Duration 能表示的最大毫秒数
const maxWaitMS = uint64(math.MaxInt64 / int64(time.Millisecond))

// waitDuration 毫秒转 time.Duration，超出范围时取最大值而不是溢出
func waitDuration(ms uint64) time.Duration {
	if ms > maxWaitMS {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

// Service 两个被插桩的演示调用；tracer、logger、clock 均由调用方注入
type Service struct {
	tracer trace.Tracer
	logger *slog.Logger
	clock  clockz.Clock
}

// Option Service 选项
type Option func(*Service)

// WithClock 替换等待所用时钟（测试用 clockz.NewFakeClock）
func WithClock(c clockz.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService logger 为 nil 时使用 slog.Default()
func NewService(tracer trace.Tracer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{tracer: tracer, logger: logger, clock: clockz.RealClock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TraceMe 返回 a+b，调用期间 span trace_me 打开，参数记为字段
func (s *Service) TraceMe(ctx context.Context, a, b uint32) uint32 {
	return tracing.Func(ctx, s.tracer, TraceMeSpan, func(context.Context) uint32 {
		return a + b
	}, tracing.WithFields(slog.Any("a", a), slog.Any("b", b)))
}

// Foo 在 span Handler::run 内等待 duration 毫秒，然后输出一条 INFO 事件。
// ctx 先结束时返回包装后的 ctx.Err()，不输出事件。
func (s *Service) Foo(ctx context.Context, duration uint64) error {
	_, err := tracing.FuncErr(ctx, s.tracer, FooSpan, func(ctx context.Context) (struct{}, error) {
		select {
		case <-s.clock.After(waitDuration(duration)):
		case <-ctx.Done():
			return struct{}{}, errors.Wrapf(ctx.Err(), "foo: wait %dms interrupted", duration)
		}
		s.logger.InfoContext(ctx, FooMessage)
		return struct{}{}, nil
	}, tracing.WithLevel(slog.LevelInfo), tracing.WithFields(slog.Uint64("duration", duration)))
	return err
}
