package client

import (
	"fmt"
	"time"

	"google.golang.org/grpc/keepalive"
)

// Config Client 配置
type Config struct {
	// 目标服务，形如 service.namespace 或 service.namespace:port
	Service string `mapstructure:"service" json:"service"`

	// 请求超时（默认超时，可被调用时的 Context 覆盖）
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`

	// KeepAlive 配置（直接使用 gRPC 原生类型）
	KeepAlive keepalive.ClientParameters `mapstructure:"keep_alive" json:"keep_alive"`

	// 消息大小限制
	MaxRecvMsgSize int `mapstructure:"max_recv_msg_size" json:"max_recv_msg_size"`
	MaxSendMsgSize int `mapstructure:"max_send_msg_size" json:"max_send_msg_size"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		RequestTimeout: 10 * time.Second,
		KeepAlive: keepalive.ClientParameters{
			Time:                5 * time.Minute,
			Timeout:             10 * time.Second,
			PermitWithoutStream: false,
		},
		MaxRecvMsgSize: 4 * 1024 * 1024, // 4MB
		MaxSendMsgSize: 4 * 1024 * 1024, // 4MB
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("%w: service is required", ErrInvalidConfig)
	}
	if c.MaxRecvMsgSize <= 0 {
		return fmt.Errorf("%w: max_recv_msg_size must be positive", ErrInvalidConfig)
	}
	if c.MaxSendMsgSize <= 0 {
		return fmt.Errorf("%w: max_send_msg_size must be positive", ErrInvalidConfig)
	}
	return nil
}
