package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	defaultLogger     *Logger
	defaultLoggerOnce sync.Once
	defaultLoggerMu   sync.RWMutex
)

// InitDefault 初始化默认 logger
func InitDefault(cfg *Config, opts ...Option) error {
	logger, err := New(cfg, opts...)
	if err != nil {
		return err
	}

	SetDefault(logger)
	return nil
}

// InitDefaultFromEnv 从环境变量初始化默认 logger
// 环境变量前缀: XLANE_LOG_
// 布尔开关不能走 MergeConfig，false 会被当作零值丢掉，这里直接改默认配置
func InitDefaultFromEnv() error {
	cfg := DefaultConfig()

	if level := os.Getenv("XLANE_LOG_LEVEL"); level != "" {
		cfg.Level = Level(level)
	}
	if format := os.Getenv("XLANE_LOG_FORMAT"); format != "" {
		cfg.Format = Format(format)
	}
	if path := os.Getenv("XLANE_LOG_PATH"); path != "" {
		cfg.EnableFile = true
		cfg.OutputPath = path
	}
	if os.Getenv("XLANE_LOG_CONSOLE") == "false" {
		cfg.EnableConsole = false
	}
	if os.Getenv("XLANE_LOG_DEVELOPMENT") == "true" {
		cfg.Development = true
	}

	return InitDefault(cfg)
}

// SetDefault 设置默认 logger
func SetDefault(logger *Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// Default 获取默认 logger
func Default() *Logger {
	defaultLoggerOnce.Do(func() {
		// 懒加载：使用默认配置 (仅控制台输出)
		if defaultLogger == nil {
			logger, err := New(DefaultConfig())
			if err != nil {
				panic(err)
			}
			defaultLogger = logger
		}
	})

	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// --- 便捷函数 (使用默认 logger) ---

func Debug(msg string, fields ...zap.Field) {
	Default().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Default().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Default().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Default().Error(msg, fields...)
}

func Named(name string) *Logger {
	return Default().Named(name)
}

func Sync() error {
	return Default().Sync()
}
