// Copyright 2026 fanjia1024
// OpenTelemetry integration: stdout exporter + 日志格式化层

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"tracing-demo/pkg/log"
	"tracing-demo/pkg/metrics"
)

// Config pipeline 配置
type Config struct {
	ServiceName       string
	PrettyPrint       bool
	WithoutTimestamps bool
	SpanEvents        SpanEvents
	Log               log.Config
}

// Pipeline 一次构建、构建后不再修改：TracerProvider + stdout exporter + 分层 Logger
type Pipeline struct {
	Provider   *sdktrace.TracerProvider
	Logger     *log.Logger
	Metrics    *metrics.Metrics
	Resource   *resource.Resource
	InstanceID string
}

// Option pipeline 构建选项
type Option func(*options)

type options struct {
	processors []sdktrace.SpanProcessor
	exportTo   io.Writer
}

// WithSpanProcessor 追加 span processor（测试中挂 tracetest.SpanRecorder）
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, sp) }
}

// WithExportWriter exporter 单独写入 w；默认与日志共用同一 writer
func WithExportWriter(w io.Writer) Option {
	return func(o *options) { o.exportTo = w }
}

// NewPipeline 构建 pipeline；w 为 nil 时写 stdout。span 经同步 processor 导出，End 返回即已写出。
func NewPipeline(cfg Config, w io.Writer, opts ...Option) (*Pipeline, error) {
	if w == nil {
		w = os.Stdout
	}
	o := options{exportTo: w}
	for _, opt := range opts {
		opt(&o)
	}

	m := metrics.New()
	// 格式化 handler 与 span 事件桥接共用同一级别，Logger.Level 调整后两者同时生效
	if cfg.Log.LevelVar == nil {
		cfg.Log.LevelVar = log.NewLevelVar(cfg.Log.Level)
	}
	events := NewEventHandler(cfg.Log.LevelVar, m)
	logger, err := log.NewLogger(&cfg.Log, w, events)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(o.exportTo)}
	if cfg.PrettyPrint {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	if cfg.WithoutTimestamps {
		exporterOpts = append(exporterOpts, stdouttrace.WithoutTimestamps())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("创建 stdout exporter 失败: %w", err)
	}

	instanceID := uuid.NewString()
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceInstanceIDKey.String(instanceID),
		),
	)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("创建 resource 失败: %w", err)
	}

	// processor 按注册顺序调用：生命周期日志先于导出写出
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if cfg.SpanEvents != SpanEventsNone {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(&lifecycleProcessor{logger: logger.Logger, events: cfg.SpanEvents}))
	}
	tpOpts = append(tpOpts,
		sdktrace.WithSpanProcessor(&metricsProcessor{m: m}),
		sdktrace.WithSyncer(exporter),
	)
	for _, sp := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	return &Pipeline{
		Provider:   sdktrace.NewTracerProvider(tpOpts...),
		Logger:     logger,
		Metrics:    m,
		Resource:   res,
		InstanceID: instanceID,
	}, nil
}

// Tracer 返回 pipeline 自己的 tracer，不经过 otel 全局
func (p *Pipeline) Tracer(name string) trace.Tracer {
	return p.Provider.Tracer(name)
}

// Shutdown 刷出并关闭 provider，关闭日志文件
func (p *Pipeline) Shutdown(ctx context.Context) error {
	return errors.Join(p.Provider.Shutdown(ctx), p.Logger.Close())
}
