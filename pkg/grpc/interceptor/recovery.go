package interceptor

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lk2023060901/xlane/pkg/logger"
)

// RecoveryConfig Recovery 拦截器配置
type RecoveryConfig struct {
	// 是否启用（默认 true）
	Enabled bool

	// 自定义恢复处理函数，nil 时返回 Internal
	RecoveryHandler func(ctx context.Context, p interface{}) error
}

// DefaultRecoveryConfig 默认配置
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		Enabled: true,
	}
}

// ServerRecoveryInterceptor Server 端 Recovery 拦截器（Unary）
func ServerRecoveryInterceptor(log *logger.Logger, cfg *RecoveryConfig) grpc.UnaryServerInterceptor {
	if cfg == nil {
		cfg = DefaultRecoveryConfig()
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		if !cfg.Enabled {
			return handler(ctx, req)
		}

		defer func() {
			if p := recover(); p != nil {
				log.Error("gRPC panic recovered",
					zap.String("grpc.method", info.FullMethod),
					zap.Any("panic", p),
					zap.String("stack", string(debug.Stack())),
				)
				if cfg.RecoveryHandler != nil {
					err = cfg.RecoveryHandler(ctx, p)
				} else {
					err = status.Errorf(codes.Internal, "internal server error: %v", p)
				}
			}
		}()

		return handler(ctx, req)
	}
}

// StreamServerRecoveryInterceptor Server 端 Recovery 拦截器（Stream）
func StreamServerRecoveryInterceptor(log *logger.Logger, cfg *RecoveryConfig) grpc.StreamServerInterceptor {
	if cfg == nil {
		cfg = DefaultRecoveryConfig()
	}

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		if !cfg.Enabled {
			return handler(srv, ss)
		}

		defer func() {
			if p := recover(); p != nil {
				log.Error("gRPC stream panic recovered",
					zap.String("grpc.method", info.FullMethod),
					zap.Any("panic", p),
					zap.String("stack", string(debug.Stack())),
				)
				if cfg.RecoveryHandler != nil {
					err = cfg.RecoveryHandler(ss.Context(), p)
				} else {
					err = status.Errorf(codes.Internal, "internal server error: %v", p)
				}
			}
		}()

		return handler(srv, ss)
	}
}
