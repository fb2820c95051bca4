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
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"tracing-demo/pkg/log"
)

func testConfig() Config {
	return Config{
		ServiceName: "tracing-test",
		Log: log.Config{
			Level:  "debug",
			Format: "compact",
			Fields: log.FormatOptions{Level: true, WithoutTime: true},
		},
	}
}

func newTestPipeline(t *testing.T, cfg Config, w io.Writer, opts ...Option) (*Pipeline, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	p, err := NewPipeline(cfg, w, append(opts, WithSpanProcessor(rec))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p, rec
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestFunc_OpensAndClosesSpan(t *testing.T) {
	p, rec := newTestPipeline(t, testConfig(), io.Discard)
	tracer := p.Tracer(TracerName)

	sum := Func(context.Background(), tracer, "trace_me", func(context.Context) uint32 {
		require.Len(t, rec.Started(), 1)
		assert.Empty(t, rec.Ended(), "span must stay open while fn runs")
		return 1 + 3
	}, WithFields(slog.Any("a", uint32(1)), slog.Any("b", uint32(3))))

	assert.Equal(t, uint32(4), sum)
	require.Len(t, rec.Ended(), 1)
	s := rec.Ended()[0]
	assert.Equal(t, "trace_me", s.Name())
	attrs := attrMap(s.Attributes())
	assert.Equal(t, int64(1), attrs["a"].AsInt64())
	assert.Equal(t, int64(3), attrs["b"].AsInt64())
	assert.Equal(t, "INFO", attrs[LevelKey].AsString())
	assert.Equal(t, codes.Unset, s.Status().Code)
}

func TestFunc_ClosesOnPanic(t *testing.T) {
	p, rec := newTestPipeline(t, testConfig(), io.Discard)

	assert.Panics(t, func() {
		Func(context.Background(), p.Tracer(TracerName), "boom", func(context.Context) int {
			panic("boom")
		})
	})
	require.Len(t, rec.Ended(), 1)
}

func TestFuncErr_RecordsError(t *testing.T) {
	p, rec := newTestPipeline(t, testConfig(), io.Discard)
	wantErr := errors.New("backend down")

	_, err := FuncErr(context.Background(), p.Tracer(TracerName), "call", func(context.Context) (struct{}, error) {
		return struct{}{}, wantErr
	}, WithLevel(slog.LevelWarn))

	require.ErrorIs(t, err, wantErr)
	require.Len(t, rec.Ended(), 1)
	s := rec.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "backend down", s.Status().Description)
	assert.Equal(t, "WARN", attrMap(s.Attributes())[LevelKey].AsString())
	require.NotEmpty(t, s.Events())
	assert.Equal(t, "exception", s.Events()[0].Name)
}

func TestStart_NestedSpans(t *testing.T) {
	p, rec := newTestPipeline(t, testConfig(), io.Discard)
	tracer := p.Tracer(TracerName)

	ctx, outer := Start(context.Background(), tracer, "outer")
	_, inner := Start(ctx, tracer, "inner")
	inner.End(nil)
	inner.End(errors.New("ignored"))
	outer.End(nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "inner", ended[0].Name())
	assert.Equal(t, outer.SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Equal(t, codes.Unset, ended[0].Status().Code, "second End must be a no-op")

	scope := log.SpanScope(ctx)
	require.Len(t, scope, 1)
	assert.Equal(t, "outer", scope[0].Name)
}

func TestEventHandler_RecordsSpanEvent(t *testing.T) {
	var buf bytes.Buffer
	p, rec := newTestPipeline(t, testConfig(), &buf, WithExportWriter(io.Discard))

	err := Func(context.Background(), p.Tracer(TracerName), "Handler::run", func(ctx context.Context) error {
		p.Logger.InfoContext(ctx, "Inside foo", "n", 1)
		return nil
	}, WithFields(slog.Uint64("duration", 100)))
	require.NoError(t, err)

	require.Len(t, rec.Ended(), 1)
	events := rec.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Inside foo", events[0].Name)
	ea := attrMap(events[0].Attributes)
	assert.Equal(t, "INFO", ea[LevelKey].AsString())
	assert.Equal(t, int64(1), ea["n"].AsInt64())

	assert.Equal(t, " INFO Handler::run: Inside foo n=1 duration=100\n", buf.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics.LogEvents.WithLabelValues("INFO")))
}

func TestEventHandler_FollowsLoggerLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Level = "info"
	var buf bytes.Buffer
	p, rec := newTestPipeline(t, cfg, &buf, WithExportWriter(io.Discard))
	tracer := p.Tracer(TracerName)

	Func(context.Background(), tracer, "quiet", func(ctx context.Context) struct{} {
		p.Logger.DebugContext(ctx, "dropped")
		return struct{}{}
	})
	p.Logger.Level.Set(slog.LevelDebug)
	Func(context.Background(), tracer, "loud", func(ctx context.Context) struct{} {
		p.Logger.DebugContext(ctx, "kept")
		return struct{}{}
	})

	require.Len(t, rec.Ended(), 2)
	assert.Empty(t, rec.Ended()[0].Events())
	require.Len(t, rec.Ended()[1].Events(), 1)
	assert.Equal(t, "kept", rec.Ended()[1].Events()[0].Name)
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestEventHandler_NoSpan(t *testing.T) {
	p, _ := newTestPipeline(t, testConfig(), io.Discard)

	p.Logger.Info("outside any span")

	assert.Equal(t, 0.0, testutil.ToFloat64(p.Metrics.LogEvents.WithLabelValues("INFO")))
}

func TestPipeline_ExportsToWriter(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newTestPipeline(t, testConfig(), &buf)

	Func(context.Background(), p.Tracer(TracerName), "trace_me", func(context.Context) int { return 0 })

	assert.Regexp(t, `"Name":\s*"trace_me"`, buf.String())
	assert.Contains(t, buf.String(), "tracing-test")
	assert.Contains(t, buf.String(), p.InstanceID)
}

func TestPipeline_Metrics(t *testing.T) {
	p, _ := newTestPipeline(t, testConfig(), io.Discard)
	tracer := p.Tracer(TracerName)

	Func(context.Background(), tracer, "trace_me", func(context.Context) int { return 0 })
	_, _ = FuncErr(context.Background(), tracer, "trace_me", func(context.Context) (int, error) {
		return 0, errors.New("x")
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(p.Metrics.SpansStarted.WithLabelValues("trace_me")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics.SpansEnded.WithLabelValues("trace_me", "unset")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics.SpansEnded.WithLabelValues("trace_me", "error")))
}

func TestPipeline_SpanLifecycleLines(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.SpanEvents = SpanEventsFull
	p, rec := newTestPipeline(t, cfg, &buf, WithExportWriter(io.Discard))

	Func(context.Background(), p.Tracer(TracerName), "trace_me", func(context.Context) int { return 0 },
		WithFields(slog.Int("a", 1)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, " INFO trace_me: new a=1", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], " INFO trace_me: close time.busy="), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], " a=1"), lines[1])
	assert.Empty(t, rec.Ended()[0].Events(), "lifecycle lines are not span events")
}

func TestParseSpanEvents(t *testing.T) {
	for in, want := range map[string]SpanEvents{
		"": SpanEventsNone, "none": SpanEventsNone, "new": SpanEventsNew,
		"close": SpanEventsClose, "FULL": SpanEventsFull,
	} {
		got, err := ParseSpanEvents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSpanEvents("sometimes")
	assert.Error(t, err)
}

func TestNewPipeline_BadLogFormat(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Format = "xml"
	_, err := NewPipeline(cfg, io.Discard)
	require.Error(t, err)
}

func TestSlot_InstallOnce(t *testing.T) {
	a, _ := newTestPipeline(t, testConfig(), io.Discard)
	b, _ := newTestPipeline(t, testConfig(), io.Discard)

	var s Slot
	assert.Nil(t, s.Current())
	require.NoError(t, s.Install(a))
	assert.ErrorIs(t, s.Install(b), ErrAlreadyInstalled)
	assert.ErrorIs(t, s.Install(a), ErrAlreadyInstalled)
	assert.Same(t, a, s.Current())
	assert.Error(t, new(Slot).Install(nil))
}

func TestSetGlobalDefault(t *testing.T) {
	prevLogger := slog.Default()
	prevProvider := otel.GetTracerProvider()
	t.Cleanup(func() {
		slog.SetDefault(prevLogger)
		otel.SetTracerProvider(prevProvider)
	})

	a, _ := newTestPipeline(t, testConfig(), io.Discard)
	b, _ := newTestPipeline(t, testConfig(), io.Discard)

	require.NoError(t, SetGlobalDefault(a))
	assert.ErrorIs(t, SetGlobalDefault(b), ErrAlreadyInstalled)
	assert.Same(t, a, Global())
	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDK)
}

func TestKeyValues(t *testing.T) {
	kvs := attrMap(keyValues([]slog.Attr{
		slog.String("s", "v"),
		slog.Int("i", -2),
		slog.Uint64("big", ^uint64(0)),
		slog.Float64("f", 1.5),
		slog.Bool("b", true),
		slog.Group("g", slog.Int("x", 1)),
		slog.Any("any", []int{1}),
	}))
	assert.Equal(t, "v", kvs["s"].AsString())
	assert.Equal(t, int64(-2), kvs["i"].AsInt64())
	assert.Equal(t, "18446744073709551615", kvs["big"].AsString())
	assert.Equal(t, 1.5, kvs["f"].AsFloat64())
	assert.True(t, kvs["b"].AsBool())
	assert.Equal(t, int64(1), kvs["g.x"].AsInt64())
	assert.Equal(t, "[1]", kvs["any"].AsString())
}
