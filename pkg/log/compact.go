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
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Layout 行布局
type Layout int

const (
	// LayoutCompact span 名以 ":" 相连，span 字段追加在事件字段之后
	LayoutCompact Layout = iota
	// LayoutFull 每层 span 渲染为 name{k=v}
	LayoutFull
)

// TimeLayout 行首时间戳格式
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatOptions 各展示字段开关；关闭的字段在输出中整体省略
type FormatOptions struct {
	Level          bool
	Target         bool
	ThreadIDs      bool
	ThreadNames    bool
	LineNumber     bool
	File           bool
	SourceLocation bool // 同时打开 File 与 LineNumber
	WithoutTime    bool
	Layout         Layout
}

// DefaultFormat 全部字段打开、compact 布局
func DefaultFormat() FormatOptions {
	return FormatOptions{
		Level:          true,
		Target:         true,
		ThreadIDs:      true,
		ThreadNames:    true,
		LineNumber:     true,
		File:           true,
		SourceLocation: true,
		Layout:         LayoutCompact,
	}
}

func (o FormatOptions) showFile() bool { return o.File || o.SourceLocation }
func (o FormatOptions) showLine() bool { return o.LineNumber || o.SourceLocation }
func (o FormatOptions) needsFrame() bool {
	return o.Target || o.showFile() || o.showLine()
}

// CompactHandler 单行文本格式的 slog.Handler，可并发使用
type CompactHandler struct {
	opts   FormatOptions
	level  slog.Leveler
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewCompactHandler level 为 nil 时使用 INFO
func NewCompactHandler(w io.Writer, level slog.Leveler, opts FormatOptions) *CompactHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &CompactHandler{opts: opts, level: level, mu: &sync.Mutex{}, w: w}
}

func (h *CompactHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, qualify(h.groups, a))
	}
	return h2
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *CompactHandler) clone() *CompactHandler {
	h2 := *h
	h2.attrs = append([]slog.Attr(nil), h.attrs...)
	h2.groups = append([]string(nil), h.groups...)
	return &h2
}

func (h *CompactHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !h.opts.WithoutTime && !r.Time.IsZero() {
		buf.WriteString(r.Time.Format(TimeLayout))
		buf.WriteByte(' ')
	}
	if h.opts.Level {
		fmt.Fprintf(&buf, "%5s ", r.Level.String())
	}
	if h.opts.ThreadNames || h.opts.ThreadIDs {
		gid := goroutineID()
		if h.opts.ThreadNames {
			buf.WriteString(threadName(ctx, gid))
			buf.WriteByte(' ')
		}
		if h.opts.ThreadIDs {
			fmt.Fprintf(&buf, "ThreadId(%02d) ", gid)
		}
	}

	scope := SpanScope(ctx)
	if len(scope) > 0 {
		for i, f := range scope {
			if i > 0 {
				buf.WriteByte(':')
			}
			buf.WriteString(f.Name)
			if h.opts.Layout == LayoutFull && len(f.Fields) > 0 {
				buf.WriteByte('{')
				for j, a := range f.Fields {
					if j > 0 {
						buf.WriteByte(' ')
					}
					writeAttr(&buf, "", a)
				}
				buf.WriteByte('}')
			}
		}
		buf.WriteString(": ")
	}

	if r.PC != 0 && h.opts.needsFrame() {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if h.opts.Target {
			buf.WriteString(target(frame.Function))
			buf.WriteString(": ")
		}
		switch {
		case h.opts.showFile() && h.opts.showLine():
			fmt.Fprintf(&buf, "%s:%d: ", shortFile(frame.File), frame.Line)
		case h.opts.showFile():
			buf.WriteString(shortFile(frame.File))
			buf.WriteString(": ")
		case h.opts.showLine():
			fmt.Fprintf(&buf, "%d: ", frame.Line)
		}
	}

	buf.WriteString(r.Message)
	for _, a := range h.attrs {
		buf.WriteByte(' ')
		writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		a = qualify(h.groups, a)
		if !a.Equal(slog.Attr{}) {
			buf.WriteByte(' ')
			writeAttr(&buf, "", a)
		}
		return true
	})
	if h.opts.Layout == LayoutCompact {
		for _, f := range scope {
			for _, a := range f.Fields {
				buf.WriteByte(' ')
				writeAttr(&buf, "", a)
			}
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// qualify 把 handler 上的 group 前缀拼入 key
func qualify(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 || a.Key == "" {
		return a
	}
	a.Key = strings.Join(groups, ".") + "." + a.Key
	return a
}

func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		first := true
		for _, ga := range a.Value.Group() {
			if !first {
				buf.WriteByte(' ')
			}
			first = false
			writeAttr(buf, key, ga)
		}
		return
	}
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " =\"\t\n") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return v.String()
	}
}

// target 由函数全名取包路径："a/b/demo.(*S).Foo.func1" -> "a/b/demo"
func target(function string) string {
	if function == "" {
		return "unknown"
	}
	slash := strings.LastIndexByte(function, '/')
	if dot := strings.IndexByte(function[slash+1:], '.'); dot >= 0 {
		return function[:slash+1+dot]
	}
	return function
}

// shortFile 保留最后一级目录："/src/x/internal/demo/demo.go" -> "demo/demo.go"
func shortFile(file string) string {
	i := strings.LastIndexByte(file, '/')
	if i < 0 {
		return file
	}
	if j := strings.LastIndexByte(file[:i], '/'); j >= 0 {
		return file[j+1:]
	}
	return file
}
