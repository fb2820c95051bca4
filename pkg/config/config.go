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

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"tracing-demo/pkg/errors"
)

// Config 应用配置结构体
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Demo       DemoConfig       `mapstructure:"demo"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// LogConfig 日志配置：级别、布局与各展示字段开关
type LogConfig struct {
	Level              string `mapstructure:"level"`  // debug | info | warn | error
	Format             string `mapstructure:"format"` // compact | full | json | text
	File               string `mapstructure:"file"`   // 为空时写入 stdout
	WithLevel          bool   `mapstructure:"with_level"`
	WithTarget         bool   `mapstructure:"with_target"`
	WithThreadIDs      bool   `mapstructure:"with_thread_ids"`
	WithThreadNames    bool   `mapstructure:"with_thread_names"`
	WithLineNumber     bool   `mapstructure:"with_line_number"`
	WithFile           bool   `mapstructure:"with_file"`
	WithSourceLocation bool   `mapstructure:"with_source_location"` // 同时打开 file 与 line
	WithoutTime        bool   `mapstructure:"without_time"`
	SpanEvents         string `mapstructure:"span_events"` // none | new | close | full
}

// TracingConfig 链路追踪配置（OpenTelemetry stdout exporter）
type TracingConfig struct {
	ServiceName       string `mapstructure:"service_name"`
	PrettyPrint       bool   `mapstructure:"pretty_print"`
	WithoutTimestamps bool   `mapstructure:"without_timestamps"`
}

// DemoConfig 两次插桩调用的参数
type DemoConfig struct {
	AddA          uint32 `mapstructure:"add_a"`
	AddB          uint32 `mapstructure:"add_b"`
	FooDurationMS uint64 `mapstructure:"foo_duration_ms"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig Prometheus 配置；不开 HTTP 端口，仅在退出时输出文本格式
type PrometheusConfig struct {
	DumpOnExit bool `mapstructure:"dump_on_exit"`
}

var (
	logFormats = map[string]bool{"compact": true, "full": true, "json": true, "text": true}
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	spanEvents = map[string]bool{"none": true, "new": true, "close": true, "full": true}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "compact")
	v.SetDefault("log.with_level", true)
	v.SetDefault("log.with_target", true)
	v.SetDefault("log.with_thread_ids", true)
	v.SetDefault("log.with_thread_names", true)
	v.SetDefault("log.with_line_number", true)
	v.SetDefault("log.with_file", true)
	v.SetDefault("log.with_source_location", true)
	v.SetDefault("log.span_events", "none")

	v.SetDefault("tracing.service_name", "tracing-demo")
	v.SetDefault("tracing.pretty_print", true)

	v.SetDefault("demo.add_a", 1)
	v.SetDefault("demo.add_b", 3)
	v.SetDefault("demo.foo_duration_ms", 100)
}

// Default 返回内置默认配置，不读文件也不读环境变量
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		// 默认值本身非法属于编程错误
		panic(err)
	}
	return cfg
}

// LoadConfig 加载配置文件并与默认值合并；环境变量以 TRACING_DEMO_ 为前缀覆盖
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("tracing_demo")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Log.SpanEvents = strings.ToLower(strings.TrimSpace(c.Log.SpanEvents))
}

// Validate 校验枚举类取值
func (c *Config) Validate() error {
	if !logLevels[c.Log.Level] {
		return errors.Invalidf("log.level %q", c.Log.Level)
	}
	if !logFormats[c.Log.Format] {
		return errors.Invalidf("log.format %q", c.Log.Format)
	}
	if !spanEvents[c.Log.SpanEvents] {
		return errors.Invalidf("log.span_events %q", c.Log.SpanEvents)
	}
	if c.Tracing.ServiceName == "" {
		return errors.Invalidf("tracing.service_name is empty")
	}
	return nil
}
