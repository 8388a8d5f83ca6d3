package lane

import (
	"fmt"
	"time"
)

// Config resolver 配置
type Config struct {
	// Endpoints etcd 集群地址
	Endpoints []string `mapstructure:"endpoints" json:"endpoints"`
	// DialTimeout etcd 连接超时
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout"`
	// Prefix 注册键前缀
	Prefix string `mapstructure:"prefix" json:"prefix"`
	// Namespace 目标未指定命名空间时的默认值
	Namespace string `mapstructure:"namespace" json:"namespace"`
	// RefreshInterval 轮询间隔（从上一次查询结束起算）
	RefreshInterval time.Duration `mapstructure:"refresh_interval" json:"refresh_interval"`
	// QueryTimeout 单次发现查询超时
	QueryTimeout time.Duration `mapstructure:"query_timeout" json:"query_timeout"`
	// DefaultPort 实例未携带端口属性时的兜底端口
	DefaultPort int `mapstructure:"default_port" json:"default_port"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoints:       []string{"localhost:2379"},
		DialTimeout:     5 * time.Second,
		Prefix:          "/services",
		Namespace:       "default",
		RefreshInterval: 10 * time.Second,
		QueryTimeout:    3 * time.Second,
		DefaultPort:     DefaultPort,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("endpoints is required")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}
	if c.DefaultPort <= 0 || c.DefaultPort > 65535 {
		return fmt.Errorf("default_port out of range: %d", c.DefaultPort)
	}
	return nil
}
