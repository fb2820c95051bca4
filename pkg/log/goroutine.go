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
	"runtime"
	"strconv"
)

type threadNameKey struct{}

var goroutinePrefix = []byte("goroutine ")

// goroutineID 从当前栈头 "goroutine N [running]:" 解析 goroutine 编号；解析失败返回 0
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// WithThreadName 为 ctx 绑定线程名，由格式化器的 thread name 字段输出
func WithThreadName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, threadNameKey{}, name)
}

// threadName ctx 未绑定名称时，goroutine 1 记为 main，其余为 goroutine-N
func threadName(ctx context.Context, id uint64) string {
	if ctx != nil {
		if name, ok := ctx.Value(threadNameKey{}).(string); ok && name != "" {
			return name
		}
	}
	if id == 1 {
		return "main"
	}
	return "goroutine-" + strconv.FormatUint(id, 10)
}
