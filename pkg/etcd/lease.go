package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/lk2023060901/xlane/pkg/util/conc"
)

// LeaseID 租约 ID
type LeaseID int64

// Lease 租约操作
type Lease struct {
	client *clientv3.Client
}

// Grant 创建租约，ttl 单位为秒
func (l *Lease) Grant(ctx context.Context, ttl int64) (LeaseID, error) {
	resp, err := l.client.Grant(ctx, ttl)
	if err != nil {
		return 0, fmt.Errorf("etcd: grant lease: %w", err)
	}
	return LeaseID(resp.ID), nil
}

// KeepAlive 保持租约存活，返回续约响应 channel
// channel 关闭表示租约已失效
func (l *Lease) KeepAlive(ctx context.Context, id LeaseID) (<-chan struct{}, error) {
	ch, err := l.client.KeepAlive(ctx, clientv3.LeaseID(id))
	if err != nil {
		return nil, fmt.Errorf("etcd: keepalive lease %d: %w", id, err)
	}

	notify := make(chan struct{}, 1)
	conc.Go(func() (struct{}, error) {
		defer close(notify)
		for range ch {
			select {
			case notify <- struct{}{}:
			default:
			}
		}
		return struct{}{}, nil
	})

	return notify, nil
}

// Revoke 撤销租约
func (l *Lease) Revoke(ctx context.Context, id LeaseID) error {
	if _, err := l.client.Revoke(ctx, clientv3.LeaseID(id)); err != nil {
		return fmt.Errorf("etcd: revoke lease %d: %w", id, err)
	}
	return nil
}
