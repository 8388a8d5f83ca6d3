package config

import "errors"

var (
	// ErrConfigFileNotFound 配置文件未找到
	ErrConfigFileNotFound = errors.New("config: file not found")

	// ErrInvalidConfigFormat 配置格式无效
	ErrInvalidConfigFormat = errors.New("config: invalid format")

	// ErrNilConfig 配置为 nil
	ErrNilConfig = errors.New("config: both dst and src cannot be nil")
)
