package etcd

import (
	"fmt"
	"time"
)

// Config etcd 客户端配置
type Config struct {
	// Endpoints etcd 集群地址
	Endpoints []string `mapstructure:"endpoints" json:"endpoints"`
	// DialTimeout 连接超时
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout"`
	// Username 用户名（可选）
	Username string `mapstructure:"username" json:"username"`
	// Password 密码（可选）
	Password string `mapstructure:"password" json:"password"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd: endpoints is required")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd: dial_timeout must be positive")
	}
	return nil
}
