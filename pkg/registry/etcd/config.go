package etcd

import (
	"fmt"
	"time"
)

// Config etcd 服务注册/发现配置
type Config struct {
	// Endpoints etcd 集群地址
	Endpoints []string `mapstructure:"endpoints" json:"endpoints"`
	// DialTimeout 连接超时
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout"`
	// TTL 注册租约过期时间
	TTL time.Duration `mapstructure:"ttl" json:"ttl"`
	// Prefix 注册键前缀（如 /services）
	Prefix string `mapstructure:"prefix" json:"prefix"`
	// Namespace 默认命名空间
	Namespace string `mapstructure:"namespace" json:"namespace"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
		TTL:         10 * time.Second,
		Prefix:      "/services",
		Namespace:   "default",
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("endpoints is required")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be positive")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if c.Prefix == "" {
		c.Prefix = "/services"
	}
	if c.Namespace == "" {
		c.Namespace = "default"
	}
	return nil
}

// instancePrefix 某服务全部实例的键前缀
func (c *Config) instancePrefix(namespace, serviceName string) string {
	return fmt.Sprintf("%s/%s/%s/", c.Prefix, namespace, serviceName)
}
