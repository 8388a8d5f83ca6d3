package etcd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lk2023060901/xlane/pkg/config"
	xlaneetcd "github.com/lk2023060901/xlane/pkg/etcd"
	"github.com/lk2023060901/xlane/pkg/logger"
	"github.com/lk2023060901/xlane/pkg/registry"
	"go.uber.org/zap"
)

// Discovery 基于 etcd 的拉取式服务发现
type Discovery struct {
	client *xlaneetcd.Client
	config *Config
	logger *logger.Logger
}

var _ registry.Discovery = (*Discovery)(nil)

// NewDiscovery 创建 etcd 服务发现器
func NewDiscovery(cfg *Config) (*Discovery, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	if err := newCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, err := xlaneetcd.New(&xlaneetcd.Config{
		Endpoints:   newCfg.Endpoints,
		DialTimeout: newCfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	return &Discovery{
		client: client,
		config: newCfg,
		logger: logger.Default().Named("discovery.etcd"),
	}, nil
}

// Resolve 查询某服务的全部实例
func (d *Discovery) Resolve(ctx context.Context, namespace, serviceName string) ([]*registry.ServiceInfo, error) {
	prefix := d.config.instancePrefix(namespace, serviceName)

	kvs, err := d.client.KV().GetWithPrefix(ctx, prefix)
	if err != nil {
		// 没有实例不算错误，返回空列表
		if errors.Is(err, xlaneetcd.ErrKeyNotFound) {
			return []*registry.ServiceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to get instances: %w", err)
	}

	instances := make([]*registry.ServiceInfo, 0, len(kvs))
	for _, kv := range kvs {
		var info registry.ServiceInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			d.logger.Warn("failed to unmarshal service info",
				zap.String("key", kv.Key),
				zap.Error(err),
			)
			continue
		}
		instances = append(instances, &info)
	}

	d.logger.Debug("instances resolved",
		zap.String("namespace", namespace),
		zap.String("service", serviceName),
		zap.Int("count", len(instances)),
	)

	return instances, nil
}

// Close 释放 etcd 客户端
func (d *Discovery) Close() error {
	return d.client.Close()
}
