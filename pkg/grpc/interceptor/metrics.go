package interceptor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/lk2023060901/xlane/pkg/trace"
)

// MetricsConfig Metrics 拦截器配置
type MetricsConfig struct {
	// 是否启用（默认 true）
	Enabled bool

	// Prometheus 命名空间（默认 "grpc"）
	Namespace string

	// Prometheus 子系统（默认 "server"）
	Subsystem string
}

// DefaultServerMetricsConfig 默认 Server Metrics 配置
func DefaultServerMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:   true,
		Namespace: "grpc",
		Subsystem: "server",
	}
}

// ServerMetrics Server 端指标，按方法和请求泳道拆分
type ServerMetrics struct {
	handledTotal    *prometheus.CounterVec
	handlingSeconds *prometheus.HistogramVec
	inflight        *prometheus.GaugeVec
}

// NewServerMetrics 创建 Server 端指标
func NewServerMetrics(cfg *MetricsConfig) *ServerMetrics {
	if cfg == nil {
		cfg = DefaultServerMetricsConfig()
	}

	return &ServerMetrics{
		handledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "handled_total",
				Help:      "Total number of RPCs completed on the server, by method, code and lane.",
			},
			[]string{"grpc_method", "grpc_code", "lane"},
		),
		handlingSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "handling_seconds",
				Help:      "Histogram of server-side RPC latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"grpc_method"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "inflight",
				Help:      "Number of RPCs currently being handled.",
			},
			[]string{"grpc_method"},
		),
	}
}

// Register 注册指标到 Prometheus
func (m *ServerMetrics) Register(registry prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{
		m.handledTotal,
		m.handlingSeconds,
		m.inflight,
	} {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// ServerMetricsInterceptor Server 端 Metrics 拦截器（Unary）
func ServerMetricsInterceptor(metrics *ServerMetrics, cfg *MetricsConfig) grpc.UnaryServerInterceptor {
	if cfg == nil {
		cfg = DefaultServerMetricsConfig()
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !cfg.Enabled {
			return handler(ctx, req)
		}

		method := info.FullMethod
		metrics.inflight.WithLabelValues(method).Inc()
		defer metrics.inflight.WithLabelValues(method).Dec()

		start := time.Now()
		resp, err := handler(ctx, req)

		metrics.handledTotal.WithLabelValues(method, status.Code(err).String(), requestLane(ctx)).Inc()
		metrics.handlingSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())

		return resp, err
	}
}

// StreamServerMetricsInterceptor Server 端 Metrics 拦截器（Stream）
func StreamServerMetricsInterceptor(metrics *ServerMetrics, cfg *MetricsConfig) grpc.StreamServerInterceptor {
	if cfg == nil {
		cfg = DefaultServerMetricsConfig()
	}

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !cfg.Enabled {
			return handler(srv, ss)
		}

		method := info.FullMethod
		metrics.inflight.WithLabelValues(method).Inc()
		defer metrics.inflight.WithLabelValues(method).Dec()

		start := time.Now()
		err := handler(srv, ss)

		metrics.handledTotal.WithLabelValues(method, status.Code(err).String(), requestLane(ss.Context())).Inc()
		metrics.handlingSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())

		return err
	}
}

// requestLane 请求泳道标签，缺失或为空记为 default
func requestLane(ctx context.Context) string {
	if info, ok := trace.FromContext(ctx); ok && info.Lane != "" {
		return info.Lane
	}
	return "default"
}
