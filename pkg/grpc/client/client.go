package client

import (
	"fmt"
	"sync"

	"google.golang.org/grpc"

	"github.com/lk2023060901/xlane/pkg/config"
	"github.com/lk2023060901/xlane/pkg/grpc/interceptor"
	"github.com/lk2023060901/xlane/pkg/logger"
	"github.com/lk2023060901/xlane/pkg/registry/lane"
)

// Client 泳道感知的 gRPC Client 封装。
// 通过服务发现解析目标服务，按请求上下文中的泳道选路。
type Client struct {
	config *Config
	conn   *grpc.ClientConn
	logger *logger.Logger

	dialOpts           []grpc.DialOption
	unaryInterceptors  []grpc.UnaryClientInterceptor
	streamInterceptors []grpc.StreamClientInterceptor

	mu     sync.RWMutex
	closed bool
}

// New 创建并连接 Client
func New(cfg *Config, builder *lane.Builder, opts ...Option) (*Client, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: newCfg,
		logger: logger.Default().Named("grpc.client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := lane.DialService(builder, newCfg.Service, c.buildDialOptions()...)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	return c, nil
}

// buildDialOptions 在 DialService 默认链（链路注入）之后追加日志、超时与调用方自定义的拦截器
func (c *Client) buildDialOptions() []grpc.DialOption {
	unary := []grpc.UnaryClientInterceptor{
		interceptor.ClientLoggingInterceptor(c.logger, nil),
	}
	if c.config.RequestTimeout > 0 {
		unary = append(unary, interceptor.ClientTimeoutInterceptor(c.config.RequestTimeout))
	}
	unary = append(unary, c.unaryInterceptors...)

	opts := []grpc.DialOption{
		grpc.WithChainUnaryInterceptor(unary...),
		grpc.WithKeepaliveParams(c.config.KeepAlive),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(c.config.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(c.config.MaxSendMsgSize),
		),
	}
	if len(c.streamInterceptors) > 0 {
		opts = append(opts, grpc.WithChainStreamInterceptor(c.streamInterceptors...))
	}
	return append(opts, c.dialOpts...)
}

// Conn 获取底层连接
func (c *Client) Conn() (*grpc.ClientConn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	return c.conn, nil
}

// Close 关闭连接
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	c.closed = true
	return c.conn.Close()
}
