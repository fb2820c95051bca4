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

package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger 简单封装，供 internal 使用
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar
	file  *os.File
}

// Config 日志配置（由 bootstrap 从 config 包拷贝）
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
	Fields FormatOptions
	// LevelVar 非空时直接使用（与其他 layer 共享同一可调级别），忽略 Level
	LevelVar *slog.LevelVar `mapstructure:"-"`
}

// ParseLevel debug | warn | error，其余按 info 处理
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLevelVar 以 ParseLevel(s) 初始化的可调级别
func NewLevelVar(s string) *slog.LevelVar {
	v := &slog.LevelVar{}
	v.Set(ParseLevel(s))
	return v
}

// NewLogger 根据配置创建 Logger，cfg 可为 nil 使用默认；w 为 nil 且未配置 File 时写 stdout。
// layers 与格式化 handler 并列接收每条记录（如 span 事件桥接）。
func NewLogger(cfg *Config, w io.Writer, layers ...slog.Handler) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{Format: "compact", Fields: DefaultFormat()}
	}
	levelVar := cfg.LevelVar
	if levelVar == nil {
		levelVar = NewLevelVar(cfg.Level)
	}

	l := &Logger{Level: levelVar}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		l.file = f
		w = f
	}
	if w == nil {
		w = os.Stdout
	}

	var h slog.Handler
	switch cfg.Format {
	case "", "compact":
		fields := cfg.Fields
		fields.Layout = LayoutCompact
		h = NewCompactHandler(w, levelVar, fields)
	case "full":
		fields := cfg.Fields
		fields.Layout = LayoutFull
		h = NewCompactHandler(w, levelVar, fields)
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar, AddSource: cfg.Fields.showFile()})
	case "text":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar, AddSource: cfg.Fields.showFile()})
	default:
		l.Close()
		return nil, fmt.Errorf("未知日志格式 %q", cfg.Format)
	}
	if len(layers) > 0 {
		h = Fanout(append([]slog.Handler{h}, layers...)...)
	}
	l.Logger = slog.New(h)
	return l, nil
}

// Close 关闭日志文件（若有）
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
