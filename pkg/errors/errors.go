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

// Package errors 提供统一错误辅助：哨兵错误与 %w 包装
package errors

import (
	"errors"
	"fmt"
)

// 哨兵错误
var (
	// ErrInvalidConfig 配置取值不合法（未知 format、span_events 等）
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInstrumented 被插桩函数返回错误时由 app 层包装
	ErrInstrumented = errors.New("instrumented call failed")
)

// Is 同 errors.Is，避免调用方同时引入两个 errors 包
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Invalidf 构造 ErrInvalidConfig 子错误
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
