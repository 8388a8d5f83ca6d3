package client

import "errors"

var (
	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("grpc/client: invalid config")

	// ErrClientClosed Client 已关闭
	ErrClientClosed = errors.New("grpc/client: client closed")
)
