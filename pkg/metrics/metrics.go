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

package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "tracing_demo"

// Metrics 每条 pipeline 一份，注册在自己的 Registry 上
type Metrics struct {
	Registry *prometheus.Registry

	// SpansStarted 已打开的 span 数
	SpansStarted *prometheus.CounterVec
	// SpansEnded 已关闭的 span 数（按状态）
	SpansEnded *prometheus.CounterVec
	// SpanDuration span 耗时（秒）
	SpanDuration *prometheus.HistogramVec
	// LogEvents 桥接到 span 上的日志事件数（按级别）
	LogEvents *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SpansStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "spans_started_total",
				Help:      "已打开的 span 数",
			},
			[]string{"span"},
		),
		SpansEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "spans_ended_total",
				Help:      "已关闭的 span 数",
			},
			[]string{"span", "status"}, // unset | ok | error
		),
		SpanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "span_duration_seconds",
				Help:      "span 耗时（秒）",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"span"},
		),
		LogEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "log_events_total",
				Help:      "span 内日志事件数",
			},
			[]string{"level"},
		),
	}
	m.Registry.MustRegister(m.SpansStarted, m.SpansEnded, m.SpanDuration, m.LogEvents)
	return m
}

// WritePrometheus 将 Prometheus 文本格式写入 w
func (m *Metrics) WritePrometheus(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
