// Package tracing 组装 OpenTelemetry 链路追踪：stdout exporter、日志格式化层与 span 事件桥接，
// 并提供作用域式的插桩函数（Start/Func/FuncErr）。
package tracing

// TracerName demo 使用的 instrumentation scope 名称
const TracerName = "tracing-demo"

// LevelKey span 与 span 事件上记录级别的属性名
const LevelKey = "level"
