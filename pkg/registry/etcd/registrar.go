package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/lk2023060901/xlane/pkg/config"
	xlaneetcd "github.com/lk2023060901/xlane/pkg/etcd"
	"github.com/lk2023060901/xlane/pkg/logger"
	"github.com/lk2023060901/xlane/pkg/registry"
	"github.com/lk2023060901/xlane/pkg/util/conc"
	"go.uber.org/zap"
)

// Registrar 基于 etcd 的服务注册器
// 注册写入带租约的实例键，后台续约保活
type Registrar struct {
	client *xlaneetcd.Client
	config *Config
	logger *logger.Logger
	pool   *conc.Pool[struct{}]

	mu      sync.Mutex
	info    *registry.ServiceInfo
	key     string
	leaseID xlaneetcd.LeaseID
	cancel  context.CancelFunc
}

var _ registry.Registrar = (*Registrar)(nil)

// NewRegistrar 创建 etcd 服务注册器
func NewRegistrar(cfg *Config) (*Registrar, error) {
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

	return &Registrar{
		client: client,
		config: newCfg,
		logger: logger.Default().Named("registry.etcd"),
		pool:   conc.NewPool[struct{}](1),
	}, nil
}

// Register 注册服务实例
// 实例地址取自元数据 ip + grpc_port/port，泳道随元数据一起发布
func (r *Registrar) Register(ctx context.Context, info *registry.ServiceInfo) error {
	addr, err := instanceAddress(info)
	if err != nil {
		return err
	}

	leaseID, err := r.client.Lease().Grant(ctx, int64(r.config.TTL.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}

	value, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal service info: %w", err)
	}

	key := r.config.instancePrefix(r.config.Namespace, info.ServiceName) + addr
	if err := r.client.KV().PutWithLease(ctx, key, string(value), leaseID); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	keepCtx, cancel := context.WithCancel(context.Background())
	notify, err := r.client.Lease().KeepAlive(keepCtx, leaseID)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to keep lease alive: %w", err)
	}

	r.mu.Lock()
	r.info = info
	r.key = key
	r.leaseID = leaseID
	r.cancel = cancel
	r.mu.Unlock()

	r.pool.Submit(func() (struct{}, error) {
		// notify 关闭说明租约失效，实例键随租约过期自动消失
		for range notify {
		}
		r.logger.Warn("lease keepalive stopped",
			zap.String("key", key),
		)
		return struct{}{}, nil
	})

	r.logger.Info("instance registered",
		zap.String("service", info.ServiceName),
		zap.String("address", addr),
		zap.String("lane", info.Attr(registry.MetaLane)),
	)

	return nil
}

// Deregister 取消注册
func (r *Registrar) Deregister(ctx context.Context) error {
	r.mu.Lock()
	key := r.key
	leaseID := r.leaseID
	cancel := r.cancel
	r.key = ""
	r.cancel = nil
	r.mu.Unlock()

	if key == "" {
		return nil
	}

	if cancel != nil {
		cancel()
	}

	if err := r.client.Lease().Revoke(ctx, leaseID); err != nil {
		r.logger.Warn("failed to revoke lease", zap.Error(err))
	}

	if err := r.client.KV().Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to deregister instance: %w", err)
	}

	r.logger.Info("instance deregistered", zap.String("key", key))
	return nil
}

// Close 释放注册器
func (r *Registrar) Close() error {
	r.pool.Release()
	return r.client.Close()
}

// instanceAddress 从实例元数据推导 host:port
func instanceAddress(info *registry.ServiceInfo) (string, error) {
	ip := info.Attr(registry.MetaIP)
	if ip == "" {
		ip = info.Attr(registry.MetaHost)
	}
	if ip == "" {
		return "", fmt.Errorf("instance has no %s or %s attribute", registry.MetaIP, registry.MetaHost)
	}

	port := info.Attr(registry.MetaGRPCPort)
	if port == "" {
		port = info.Attr(registry.MetaPort)
	}
	if port == "" {
		return "", fmt.Errorf("instance has no %s or %s attribute", registry.MetaGRPCPort, registry.MetaPort)
	}

	return net.JoinHostPort(ip, port), nil
}
