package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// KeyValue 键值对
type KeyValue struct {
	Key     string
	Value   []byte
	Version int64
}

// KV 键值操作
type KV struct {
	client *clientv3.Client
}

// Get 获取单个键
func (kv *KV) Get(ctx context.Context, key string) (*KeyValue, error) {
	resp, err := kv.client.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("etcd: get %s: %w", key, err)
	}

	if len(resp.Kvs) == 0 {
		return nil, ErrKeyNotFound
	}

	return &KeyValue{
		Key:     string(resp.Kvs[0].Key),
		Value:   resp.Kvs[0].Value,
		Version: resp.Kvs[0].Version,
	}, nil
}

// GetWithPrefix 获取前缀下的所有键值对
func (kv *KV) GetWithPrefix(ctx context.Context, prefix string) ([]*KeyValue, error) {
	resp, err := kv.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("etcd: get prefix %s: %w", prefix, err)
	}

	if len(resp.Kvs) == 0 {
		return nil, ErrKeyNotFound
	}

	kvs := make([]*KeyValue, 0, len(resp.Kvs))
	for _, item := range resp.Kvs {
		kvs = append(kvs, &KeyValue{
			Key:     string(item.Key),
			Value:   item.Value,
			Version: item.Version,
		})
	}

	return kvs, nil
}

// Put 写入键值
func (kv *KV) Put(ctx context.Context, key, value string) error {
	if _, err := kv.client.Put(ctx, key, value); err != nil {
		return fmt.Errorf("etcd: put %s: %w", key, err)
	}
	return nil
}

// PutWithLease 写入带租约的键值
func (kv *KV) PutWithLease(ctx context.Context, key, value string, leaseID LeaseID) error {
	if _, err := kv.client.Put(ctx, key, value, clientv3.WithLease(clientv3.LeaseID(leaseID))); err != nil {
		return fmt.Errorf("etcd: put %s with lease: %w", key, err)
	}
	return nil
}

// Delete 删除键
func (kv *KV) Delete(ctx context.Context, key string) error {
	if _, err := kv.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("etcd: delete %s: %w", key, err)
	}
	return nil
}
