package server

import (
	"fmt"
	"time"

	"google.golang.org/grpc/keepalive"
)

// Config Server 配置
type Config struct {
	// 基础配置
	Name    string `mapstructure:"name" json:"name"`       // 服务名称
	Network string `mapstructure:"network" json:"network"` // 网络协议：tcp, unix
	Address string `mapstructure:"address" json:"address"` // 监听地址，如 :50051

	// 实例归属的泳道，空串表示默认泳道
	Lane string `mapstructure:"lane" json:"lane"`

	// 注册到服务发现时对外通告的 IP，空时取监听地址
	AdvertiseIP string `mapstructure:"advertise_ip" json:"advertise_ip"`

	// 消息大小限制
	MaxRecvMsgSize int `mapstructure:"max_recv_msg_size" json:"max_recv_msg_size"`
	MaxSendMsgSize int `mapstructure:"max_send_msg_size" json:"max_send_msg_size"`

	// KeepAlive 配置（直接使用 gRPC 原生类型）
	KeepAliveParams      keepalive.ServerParameters  `mapstructure:"keep_alive_params" json:"keep_alive_params"`
	KeepAliveEnforcement keepalive.EnforcementPolicy `mapstructure:"keep_alive_enforcement" json:"keep_alive_enforcement"`

	// 优雅关闭超时
	GracefulStopTimeout time.Duration `mapstructure:"graceful_stop_timeout" json:"graceful_stop_timeout"`

	// 健康检查和反射
	EnableHealthCheck bool `mapstructure:"enable_health_check" json:"enable_health_check"`
	EnableReflection  bool `mapstructure:"enable_reflection" json:"enable_reflection"`

	// 是否在默认拦截器链中采集按泳道拆分的请求指标
	EnableMetrics bool `mapstructure:"enable_metrics" json:"enable_metrics"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Name:           "grpc-server",
		Network:        "tcp",
		Address:        ":50051",
		MaxRecvMsgSize: 4 * 1024 * 1024, // 4MB
		MaxSendMsgSize: 4 * 1024 * 1024, // 4MB
		KeepAliveParams: keepalive.ServerParameters{
			MaxConnectionIdle:     15 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  5 * time.Minute,
			Timeout:               10 * time.Second,
		},
		KeepAliveEnforcement: keepalive.EnforcementPolicy{
			MinTime:             1 * time.Minute,
			PermitWithoutStream: true,
		},
		GracefulStopTimeout: 30 * time.Second,
		EnableHealthCheck:   true,
		EnableReflection:    false,
		EnableMetrics:       true,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if c.Network != "tcp" && c.Network != "unix" {
		return fmt.Errorf("%w: network must be tcp or unix", ErrInvalidConfig)
	}
	if c.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}
	if c.MaxRecvMsgSize <= 0 {
		return fmt.Errorf("%w: max_recv_msg_size must be positive", ErrInvalidConfig)
	}
	if c.MaxSendMsgSize <= 0 {
		return fmt.Errorf("%w: max_send_msg_size must be positive", ErrInvalidConfig)
	}
	if c.GracefulStopTimeout <= 0 {
		return fmt.Errorf("%w: graceful_stop_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
