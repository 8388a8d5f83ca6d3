package server

import (
	"google.golang.org/grpc"

	"github.com/lk2023060901/xlane/pkg/logger"
	"github.com/lk2023060901/xlane/pkg/registry"
)

// Option Server 配置选项
type Option func(*Server)

// WithLogger 设置自定义 logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithServerOptions 添加 gRPC ServerOption
func WithServerOptions(opts ...grpc.ServerOption) Option {
	return func(s *Server) {
		s.grpcOpts = append(s.grpcOpts, opts...)
	}
}

// WithUnaryInterceptors 添加一元拦截器，排在默认拦截器链之后
func WithUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(s *Server) {
		s.unaryInterceptors = append(s.unaryInterceptors, interceptors...)
	}
}

// WithStreamInterceptors 添加流式拦截器，排在默认拦截器链之后
func WithStreamInterceptors(interceptors ...grpc.StreamServerInterceptor) Option {
	return func(s *Server) {
		s.streamInterceptors = append(s.streamInterceptors, interceptors...)
	}
}

// WithRegistrar 设置服务注册器，启动时注册实例，停止时注销
func WithRegistrar(registrar registry.Registrar) Option {
	return func(s *Server) {
		s.registrar = registrar
	}
}

// WithoutDefaultInterceptors 关闭默认拦截器链，只保留显式添加的拦截器
func WithoutDefaultInterceptors() Option {
	return func(s *Server) {
		s.noDefaultInterceptors = true
	}
}
