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
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// keyValues slog 属性转 OpenTelemetry 属性；group 展开为 "g.key"
func keyValues(attrs []slog.Attr) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		out = appendKeyValue(out, "", a)
	}
	return out
}

func appendKeyValue(out []attribute.KeyValue, prefix string, a slog.Attr) []attribute.KeyValue {
	a.Value = a.Value.Resolve()
	if a.Key == "" && a.Value.Kind() != slog.KindGroup {
		return out
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	v := a.Value
	switch v.Kind() {
	case slog.KindString:
		return append(out, attribute.String(key, v.String()))
	case slog.KindInt64:
		return append(out, attribute.Int64(key, v.Int64()))
	case slog.KindUint64:
		u := v.Uint64()
		if u > math.MaxInt64 {
			return append(out, attribute.String(key, strconv.FormatUint(u, 10)))
		}
		return append(out, attribute.Int64(key, int64(u)))
	case slog.KindFloat64:
		return append(out, attribute.Float64(key, v.Float64()))
	case slog.KindBool:
		return append(out, attribute.Bool(key, v.Bool()))
	case slog.KindDuration:
		return append(out, attribute.String(key, v.Duration().String()))
	case slog.KindTime:
		return append(out, attribute.String(key, v.Time().Format(time.RFC3339Nano)))
	case slog.KindGroup:
		for _, ga := range v.Group() {
			out = appendKeyValue(out, key, ga)
		}
		return out
	default:
		return append(out, attribute.String(key, fmt.Sprint(v.Any())))
	}
}

// slogAttrs OpenTelemetry 属性转 slog 属性，供生命周期日志渲染 span 字段
func slogAttrs(kvs []attribute.KeyValue) []slog.Attr {
	out := make([]slog.Attr, 0, len(kvs))
	for _, kv := range kvs {
		key := string(kv.Key)
		if key == LevelKey {
			continue
		}
		switch kv.Value.Type() {
		case attribute.BOOL:
			out = append(out, slog.Bool(key, kv.Value.AsBool()))
		case attribute.INT64:
			out = append(out, slog.Int64(key, kv.Value.AsInt64()))
		case attribute.FLOAT64:
			out = append(out, slog.Float64(key, kv.Value.AsFloat64()))
		case attribute.STRING:
			out = append(out, slog.String(key, kv.Value.AsString()))
		default:
			out = append(out, slog.String(key, kv.Value.Emit()))
		}
	}
	return out
}

// spanLevel 读取 span 上的 level 属性，缺省 INFO
func spanLevel(kvs []attribute.KeyValue) slog.Level {
	for _, kv := range kvs {
		if string(kv.Key) != LevelKey {
			continue
		}
		var l slog.Level
		if err := l.UnmarshalText([]byte(kv.Value.AsString())); err == nil {
			return l
		}
	}
	return slog.LevelInfo
}
