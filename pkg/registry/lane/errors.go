package lane

import "errors"

var (
	// ErrInvalidTarget 目标格式非法
	ErrInvalidTarget = errors.New("lane: invalid target, want etcd:///service.namespace[:port]")

	// ErrNoEndpoints 快照中没有任何端点
	ErrNoEndpoints = errors.New("lane: no endpoints")
)
