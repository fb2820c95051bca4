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
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
)

// ErrAlreadyInstalled 全局已安装过 pipeline
var ErrAlreadyInstalled = errors.New("a global tracing pipeline has already been installed")

// Slot 至多容纳一条 pipeline；零值可用
type Slot struct {
	mu sync.Mutex
	p  *Pipeline
}

// Install 首次调用成功，此后一律返回 ErrAlreadyInstalled
func (s *Slot) Install(p *Pipeline) error {
	if p == nil {
		return errors.New("tracing: nil pipeline")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.p != nil {
		return ErrAlreadyInstalled
	}
	s.p = p
	return nil
}

// Current 已安装的 pipeline，未安装时为 nil
func (s *Slot) Current() *Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

var global Slot

// SetGlobalDefault 将 p 设为进程级 otel TracerProvider 与 slog 默认 Logger
func SetGlobalDefault(p *Pipeline) error {
	if err := global.Install(p); err != nil {
		return err
	}
	otel.SetTracerProvider(p.Provider)
	slog.SetDefault(p.Logger.Logger)
	return nil
}

// Global 当前全局 pipeline
func Global() *Pipeline {
	return global.Current()
}
