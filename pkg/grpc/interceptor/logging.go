package interceptor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/lk2023060901/xlane/pkg/logger"
	"github.com/lk2023060901/xlane/pkg/trace"
)

// LoggingConfig 日志拦截器配置
type LoggingConfig struct {
	// 是否启用（默认 true）
	Enabled bool

	// 是否记录请求（默认 true）
	LogRequest bool

	// 是否记录响应（默认 true）
	LogResponse bool

	// 敏感字段列表（需要脱敏）
	SensitiveFields []string

	// 跳过的方法列表
	SkipMethods []string

	// 最大参数大小（0 表示不限制）
	MaxPayloadSize int
}

// DefaultLoggingConfig 默认配置
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Enabled:         true,
		LogRequest:      true,
		LogResponse:     true,
		SensitiveFields: []string{"password", "token", "secret", "credential", "authorization", "api_key"},
		SkipMethods:     []string{"/grpc.health.v1.Health/Check", "/grpc.health.v1.Health/Watch"},
		MaxPayloadSize:  0,
	}
}

// ServerLoggingInterceptor Server 端日志拦截器（Unary）
func ServerLoggingInterceptor(log *logger.Logger, cfg *LoggingConfig) grpc.UnaryServerInterceptor {
	if cfg == nil {
		cfg = DefaultLoggingConfig()
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !cfg.Enabled || shouldSkipMethod(info.FullMethod, cfg.SkipMethods) {
			return handler(ctx, req)
		}

		start := time.Now()

		fields := []zap.Field{
			zap.String("grpc.method", info.FullMethod),
			zap.String("grpc.type", "unary"),
		}
		fields = appendTraceFields(ctx, fields)
		if p, ok := peer.FromContext(ctx); ok {
			fields = append(fields, zap.String("grpc.peer", p.Addr.String()))
		}
		if cfg.LogRequest {
			if reqJSON := marshalPayload(req, cfg); reqJSON != "" {
				fields = append(fields, zap.String("grpc.request", reqJSON))
			}
		}
		log.Info("gRPC request started", fields...)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields = []zap.Field{
			zap.String("grpc.method", info.FullMethod),
			zap.String("grpc.code", code.String()),
			zap.Duration("grpc.duration", time.Since(start)),
		}
		fields = appendTraceFields(ctx, fields)
		if cfg.LogResponse && resp != nil {
			if respJSON := marshalPayload(resp, cfg); respJSON != "" {
				fields = append(fields, zap.String("grpc.response", respJSON))
			}
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
			if code == codes.Internal || code == codes.Unknown {
				log.Error("gRPC request failed", fields...)
			} else {
				log.Warn("gRPC request failed", fields...)
			}
		} else {
			log.Info("gRPC request completed", fields...)
		}

		return resp, err
	}
}

// StreamServerLoggingInterceptor Server 端日志拦截器（Stream）
func StreamServerLoggingInterceptor(log *logger.Logger, cfg *LoggingConfig) grpc.StreamServerInterceptor {
	if cfg == nil {
		cfg = DefaultLoggingConfig()
	}

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !cfg.Enabled || shouldSkipMethod(info.FullMethod, cfg.SkipMethods) {
			return handler(srv, ss)
		}

		start := time.Now()
		ctx := ss.Context()

		fields := []zap.Field{
			zap.String("grpc.method", info.FullMethod),
			zap.String("grpc.type", "stream"),
		}
		fields = appendTraceFields(ctx, fields)
		if p, ok := peer.FromContext(ctx); ok {
			fields = append(fields, zap.String("grpc.peer", p.Addr.String()))
		}
		log.Info("gRPC stream started", fields...)

		err := handler(srv, ss)

		code := status.Code(err)
		fields = []zap.Field{
			zap.String("grpc.method", info.FullMethod),
			zap.String("grpc.code", code.String()),
			zap.Duration("grpc.duration", time.Since(start)),
		}
		fields = appendTraceFields(ctx, fields)

		if err != nil {
			fields = append(fields, zap.Error(err))
			log.Error("gRPC stream failed", fields...)
		} else {
			log.Info("gRPC stream completed", fields...)
		}

		return err
	}
}

// ClientLoggingInterceptor Client 端日志拦截器（Unary）
func ClientLoggingInterceptor(log *logger.Logger, cfg *LoggingConfig) grpc.UnaryClientInterceptor {
	if cfg == nil {
		cfg = DefaultLoggingConfig()
	}

	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if !cfg.Enabled || shouldSkipMethod(method, cfg.SkipMethods) {
			return invoker(ctx, method, req, reply, cc, opts...)
		}

		start := time.Now()

		err := invoker(ctx, method, req, reply, cc, opts...)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("grpc.method", method),
			zap.String("grpc.target", cc.Target()),
			zap.String("grpc.code", code.String()),
			zap.Duration("grpc.duration", time.Since(start)),
		}
		fields = appendTraceFields(ctx, fields)
		if cfg.LogResponse && err == nil && reply != nil {
			if respJSON := marshalPayload(reply, cfg); respJSON != "" {
				fields = append(fields, zap.String("grpc.response", respJSON))
			}
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
			log.Warn("gRPC client request failed", fields...)
		} else {
			log.Info("gRPC client request completed", fields...)
		}

		return err
	}
}

// appendTraceFields 追加链路字段，泳道为空时记为 default
func appendTraceFields(ctx context.Context, fields []zap.Field) []zap.Field {
	info, ok := trace.FromContext(ctx)
	if !ok {
		return fields
	}
	lane := info.Lane
	if lane == "" {
		lane = "default"
	}
	return append(fields,
		zap.String("trace_id", info.TraceID),
		zap.String("lane", lane),
	)
}

// marshalPayload 序列化 payload 为 JSON 字符串
func marshalPayload(payload interface{}, cfg *LoggingConfig) string {
	msg, ok := payload.(proto.Message)
	if !ok {
		return ""
	}

	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		EmitUnpopulated: false,
	}
	data, err := marshaler.Marshal(msg)
	if err != nil {
		return ""
	}

	jsonStr := sanitizeJSON(string(data), cfg.SensitiveFields)

	if cfg.MaxPayloadSize > 0 && len(jsonStr) > cfg.MaxPayloadSize {
		return jsonStr[:cfg.MaxPayloadSize] + "...[truncated]"
	}
	return jsonStr
}

// sanitizeJSON 脱敏处理 JSON 字符串
func sanitizeJSON(jsonStr string, sensitiveFields []string) string {
	if len(sensitiveFields) == 0 {
		return jsonStr
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return jsonStr
	}

	sanitizeMap(data, sensitiveFields)

	sanitized, err := json.Marshal(data)
	if err != nil {
		return jsonStr
	}
	return string(sanitized)
}

// sanitizeMap 递归脱敏 map
func sanitizeMap(data map[string]interface{}, sensitiveFields []string) {
	for key, value := range data {
		if isSensitiveField(key, sensitiveFields) {
			data[key] = "***"
			continue
		}
		switch v := value.(type) {
		case map[string]interface{}:
			sanitizeMap(v, sensitiveFields)
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					sanitizeMap(m, sensitiveFields)
				}
			}
		}
	}
}

// isSensitiveField 检查是否是敏感字段
func isSensitiveField(field string, sensitiveFields []string) bool {
	lowerField := strings.ToLower(field)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(lowerField, strings.ToLower(sensitive)) {
			return true
		}
	}
	return false
}

// shouldSkipMethod 检查是否跳过方法
func shouldSkipMethod(method string, skipMethods []string) bool {
	for _, skip := range skipMethods {
		if method == skip {
			return true
		}
	}
	return false
}
