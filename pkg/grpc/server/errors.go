package server

import "errors"

var (
	// ErrServerAlreadyStarted Server 已启动
	ErrServerAlreadyStarted = errors.New("grpc server: already started")

	// ErrServerNotStarted Server 未启动
	ErrServerNotStarted = errors.New("grpc server: not started")

	// ErrInvalidConfig 配置非法
	ErrInvalidConfig = errors.New("grpc server: invalid config")
)
