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
	"context"
	"log/slog"
)

// SpanFrame 格式化器视角下的一层 span：名称与字段
type SpanFrame struct {
	Name   string
	Fields []slog.Attr
}

type scopeKey struct{}

// ContextWithSpan 在 ctx 的 span 链尾部追加一层；原 ctx 的链不受影响
func ContextWithSpan(ctx context.Context, name string, fields []slog.Attr) context.Context {
	parent := SpanScope(ctx)
	scope := make([]SpanFrame, len(parent), len(parent)+1)
	copy(scope, parent)
	scope = append(scope, SpanFrame{Name: name, Fields: fields})
	return context.WithValue(ctx, scopeKey{}, scope)
}

// SpanScope 返回 ctx 中由外到内的 span 链
func SpanScope(ctx context.Context) []SpanFrame {
	if ctx == nil {
		return nil
	}
	scope, _ := ctx.Value(scopeKey{}).([]SpanFrame)
	return scope
}
