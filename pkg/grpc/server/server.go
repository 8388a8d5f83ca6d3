package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/lk2023060901/xlane/pkg/config"
	"github.com/lk2023060901/xlane/pkg/grpc/interceptor"
	"github.com/lk2023060901/xlane/pkg/logger"
	"github.com/lk2023060901/xlane/pkg/registry"
	"github.com/lk2023060901/xlane/pkg/util/conc"
)

// Server gRPC Server 封装，启动时把实例连同泳道注册到服务发现
type Server struct {
	config *Config
	server *grpc.Server
	logger *logger.Logger

	grpcOpts              []grpc.ServerOption
	unaryInterceptors     []grpc.UnaryServerInterceptor
	streamInterceptors    []grpc.StreamServerInterceptor
	noDefaultInterceptors bool

	registrar registry.Registrar

	healthServer *health.Server

	serveFuture *conc.Future[struct{}]

	mu       sync.RWMutex
	started  bool
	listener net.Listener
}

// New 创建 gRPC Server
func New(cfg *Config, opts ...Option) (*Server, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config: newCfg,
		logger: logger.Default().Named("grpc.server"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.server = grpc.NewServer(s.buildServerOptions()...)

	if newCfg.EnableHealthCheck {
		s.healthServer = health.NewServer()
		grpc_health_v1.RegisterHealthServer(s.server, s.healthServer)
	}
	if newCfg.EnableReflection {
		reflection.Register(s.server)
	}

	return s, nil
}

// Start 启动 Server
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrServerAlreadyStarted
	}

	listener, err := net.Listen(s.config.Network, s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s://%s: %w",
			s.config.Network, s.config.Address, err)
	}
	s.listener = listener

	if s.healthServer != nil {
		s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	}

	if err := s.registerService(); err != nil {
		listener.Close()
		return fmt.Errorf("failed to register service: %w", err)
	}

	s.started = true

	s.logger.Info("gRPC server starting",
		zap.String("name", s.config.Name),
		zap.String("address", listener.Addr().String()),
		zap.String("lane", laneLabel(s.config.Lane)),
	)

	s.serveFuture = conc.Go(func() (struct{}, error) {
		return struct{}{}, s.server.Serve(listener)
	})

	return nil
}

// Stop 立即停止 Server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrServerNotStarted
	}

	s.logger.Info("stopping gRPC server")
	s.markNotServing()

	if err := s.deregisterService(); err != nil {
		s.logger.Warn("failed to deregister service", zap.Error(err))
	}

	s.server.Stop()
	s.waitServe()
	s.started = false
	return nil
}

// GracefulStop 优雅停止 Server，超时后强制停止
func (s *Server) GracefulStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrServerNotStarted
	}

	s.logger.Info("gracefully stopping gRPC server")
	s.markNotServing()

	if err := s.deregisterService(); err != nil {
		s.logger.Warn("failed to deregister service", zap.Error(err))
	}

	stopFuture := conc.Go(func() (struct{}, error) {
		s.server.GracefulStop()
		return struct{}{}, nil
	})

	select {
	case <-stopFuture.Done():
		s.logger.Info("gRPC server stopped gracefully")
	case <-time.After(s.config.GracefulStopTimeout):
		s.logger.Warn("graceful stop timeout, forcing stop")
		s.server.Stop()
	}

	s.waitServe()
	s.started = false
	return nil
}

// RegisterService 注册 gRPC 服务
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.server.RegisterService(desc, impl)
}

// GetGRPCServer 获取底层 gRPC Server
func (s *Server) GetGRPCServer() *grpc.Server {
	return s.server
}

// GetListener 获取监听器
func (s *Server) GetListener() net.Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener
}

// buildServerOptions 构建 gRPC ServerOptions
func (s *Server) buildServerOptions() []grpc.ServerOption {
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(s.config.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(s.config.MaxSendMsgSize),
		grpc.KeepaliveParams(s.config.KeepAliveParams),
		grpc.KeepaliveEnforcementPolicy(s.config.KeepAliveEnforcement),
	}

	unary := s.defaultUnaryInterceptors()
	unary = append(unary, s.unaryInterceptors...)
	stream := s.defaultStreamInterceptors()
	stream = append(stream, s.streamInterceptors...)

	if len(unary) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(unary...))
	}
	if len(stream) > 0 {
		opts = append(opts, grpc.ChainStreamInterceptor(stream...))
	}

	return append(opts, s.grpcOpts...)
}

// 默认链的指标实例进程内共享，collector 只注册一次
var (
	serverMetricsOnce sync.Once
	serverMetrics     *interceptor.ServerMetrics
)

func defaultServerMetrics() *interceptor.ServerMetrics {
	serverMetricsOnce.Do(func() {
		serverMetrics = interceptor.NewServerMetrics(nil)
		if err := serverMetrics.Register(prometheus.DefaultRegisterer); err != nil {
			logger.Default().Named("grpc.server").Warn("failed to register server metrics", zap.Error(err))
		}
	})
	return serverMetrics
}

// defaultUnaryInterceptors 默认链：链路解析在最外层，业务拦截器都能看到泳道
func (s *Server) defaultUnaryInterceptors() []grpc.UnaryServerInterceptor {
	if s.noDefaultInterceptors {
		return nil
	}
	chain := []grpc.UnaryServerInterceptor{
		interceptor.ServerTraceInterceptor(),
		interceptor.ServerRecoveryInterceptor(s.logger, nil),
		interceptor.ServerLoggingInterceptor(s.logger, nil),
	}
	if s.config.EnableMetrics {
		chain = append(chain, interceptor.ServerMetricsInterceptor(defaultServerMetrics(), nil))
	}
	return chain
}

func (s *Server) defaultStreamInterceptors() []grpc.StreamServerInterceptor {
	if s.noDefaultInterceptors {
		return nil
	}
	chain := []grpc.StreamServerInterceptor{
		interceptor.StreamServerTraceInterceptor(),
		interceptor.StreamServerRecoveryInterceptor(s.logger, nil),
		interceptor.StreamServerLoggingInterceptor(s.logger, nil),
	}
	if s.config.EnableMetrics {
		chain = append(chain, interceptor.StreamServerMetricsInterceptor(defaultServerMetrics(), nil))
	}
	return chain
}

// registerService 把实例注册到服务发现，泳道随元数据一起写入
func (s *Server) registerService() error {
	if s.registrar == nil {
		return nil
	}

	host, port, err := net.SplitHostPort(s.listener.Addr().String())
	if err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}
	if s.config.AdvertiseIP != "" {
		host = s.config.AdvertiseIP
	}

	info := &registry.ServiceInfo{
		ServiceName: s.config.Name,
		Metadata: map[string]string{
			registry.MetaIP:       host,
			registry.MetaGRPCPort: port,
		},
	}
	if lane := registry.NormalizeLane(s.config.Lane); lane != "" {
		info.Metadata[registry.MetaLane] = lane
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.registrar.Register(ctx, info)
}

// deregisterService 从服务发现注销
func (s *Server) deregisterService() error {
	if s.registrar == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.registrar.Deregister(ctx)
}

func (s *Server) markNotServing() {
	if s.healthServer != nil {
		s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
}

func (s *Server) waitServe() {
	if s.serveFuture == nil {
		return
	}
	if _, err := s.serveFuture.Wait(); err != nil && err != grpc.ErrServerStopped {
		s.logger.Warn("serve ended with error", zap.Error(err))
	}
}

func laneLabel(lane string) string {
	if lane == "" {
		return "default"
	}
	return lane
}
