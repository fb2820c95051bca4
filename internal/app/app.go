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
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"tracing-demo/internal/demo"
	"tracing-demo/pkg/config"
	"tracing-demo/pkg/errors"
	"tracing-demo/pkg/tracing"
)

// shutdownTimeout 退出前刷出 span 的最长等待
const shutdownTimeout = 5 * time.Second

// Installer 安装 pipeline；cmd 传 tracing.SetGlobalDefault，测试传独立 Slot 的 Install
type Installer func(*tracing.Pipeline) error

// App 演示程序：配置 tracing → TraceMe → Foo → 刷出
type App struct {
	boot    *Bootstrap
	install Installer
	out     io.Writer
	opts    []demo.Option
}

// NewApp 创建 App；w 为 nil 时写 stdout，install 为 nil 时使用 tracing.SetGlobalDefault
func NewApp(cfg *config.Config, w io.Writer, install Installer, opts ...tracing.Option) (*App, error) {
	if w == nil {
		w = os.Stdout
	}
	boot, err := NewBootstrap(cfg, w, opts...)
	if err != nil {
		return nil, err
	}
	if install == nil {
		install = tracing.SetGlobalDefault
	}
	return &App{boot: boot, install: install, out: w}, nil
}

// WithServiceOptions 透传给 demo.NewService
func (a *App) WithServiceOptions(opts ...demo.Option) *App {
	a.opts = append(a.opts, opts...)
	return a
}

// Pipeline 返回 App 使用的 pipeline
func (a *App) Pipeline() *tracing.Pipeline {
	return a.boot.Pipeline
}

// Run 安装 pipeline 后依次执行两次插桩调用，最后刷出 span；安装失败与调用失败均返回错误
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := a.Shutdown(sctx); serr != nil && err == nil {
			err = serr
		}
	}()

	if err := a.install(a.boot.Pipeline); err != nil {
		return errors.Wrap(err, "安装 tracing pipeline 失败")
	}

	p := a.boot.Pipeline
	svc := demo.NewService(p.Tracer(tracing.TracerName), p.Logger.Logger, a.opts...)

	cfg := a.boot.Config.Demo
	_ = svc.TraceMe(ctx, cfg.AddA, cfg.AddB)

	if err := svc.Foo(ctx, cfg.FooDurationMS); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInstrumented, err)
	}
	return nil
}

// Shutdown 刷出并关闭 pipeline；按配置输出 Prometheus 文本
func (a *App) Shutdown(ctx context.Context) error {
	p := a.boot.Pipeline
	if err := p.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "关闭 tracing pipeline 失败")
	}
	if a.boot.Config.Monitoring.Prometheus.DumpOnExit && a.out != nil {
		if err := p.Metrics.WritePrometheus(a.out); err != nil {
			return errors.Wrap(err, "输出 metrics 失败")
		}
	}
	return nil
}
