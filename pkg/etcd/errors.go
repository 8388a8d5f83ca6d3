package etcd

import "errors"

var (
	// ErrKeyNotFound 键不存在
	ErrKeyNotFound = errors.New("etcd: key not found")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("etcd: client closed")
)
