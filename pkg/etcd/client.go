package etcd

import (
	"fmt"

	"github.com/lk2023060901/xlane/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Client etcd 客户端封装
type Client struct {
	cli *clientv3.Client
	kv  *KV
	ls  *Lease
}

// New 创建 etcd 客户端
func New(cfg *Config) (*Client, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	if err := newCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   newCfg.Endpoints,
		DialTimeout: newCfg.DialTimeout,
		Username:    newCfg.Username,
		Password:    newCfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	c := &Client{cli: cli}
	c.kv = &KV{client: cli}
	c.ls = &Lease{client: cli}

	return c, nil
}

// KV 返回键值操作接口
func (c *Client) KV() *KV {
	return c.kv
}

// Lease 返回租约操作接口
func (c *Client) Lease() *Lease {
	return c.ls
}

// Raw 返回底层 clientv3 客户端
func (c *Client) Raw() *clientv3.Client {
	return c.cli
}

// Close 关闭客户端
func (c *Client) Close() error {
	return c.cli.Close()
}
