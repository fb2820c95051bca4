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

package app

import (
	"io"

	"tracing-demo/pkg/config"
	"tracing-demo/pkg/errors"
	"tracing-demo/pkg/log"
	"tracing-demo/pkg/tracing"
)

// Bootstrap 统一初始化：由配置构建 tracing pipeline，供 cmd 与测试复用
type Bootstrap struct {
	Config   *config.Config
	Pipeline *tracing.Pipeline
	Logger   *log.Logger
}

// PipelineConfig 把应用配置映射为 tracing.Config
func PipelineConfig(cfg *config.Config) (tracing.Config, error) {
	spanEvents, err := tracing.ParseSpanEvents(cfg.Log.SpanEvents)
	if err != nil {
		return tracing.Config{}, err
	}
	return tracing.Config{
		ServiceName:       cfg.Tracing.ServiceName,
		PrettyPrint:       cfg.Tracing.PrettyPrint,
		WithoutTimestamps: cfg.Tracing.WithoutTimestamps,
		SpanEvents:        spanEvents,
		Log: log.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
			Fields: log.FormatOptions{
				Level:          cfg.Log.WithLevel,
				Target:         cfg.Log.WithTarget,
				ThreadIDs:      cfg.Log.WithThreadIDs,
				ThreadNames:    cfg.Log.WithThreadNames,
				LineNumber:     cfg.Log.WithLineNumber,
				File:           cfg.Log.WithFile,
				SourceLocation: cfg.Log.WithSourceLocation,
				WithoutTime:    cfg.Log.WithoutTime,
			},
		},
	}, nil
}

// NewBootstrap 根据配置创建 Bootstrap；cfg 为 nil 时使用 config.Default()
func NewBootstrap(cfg *config.Config, w io.Writer, opts ...tracing.Option) (*Bootstrap, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	pcfg, err := PipelineConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "解析 tracing 配置失败")
	}
	p, err := tracing.NewPipeline(pcfg, w, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "初始化 tracing pipeline 失败")
	}
	return &Bootstrap{
		Config:   cfg,
		Pipeline: p,
		Logger:   p.Logger,
	}, nil
}
