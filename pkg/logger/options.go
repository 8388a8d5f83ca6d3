package logger

// Option 配置选项
type Option func(*Logger)

// WithName 设置 logger 名称
func WithName(name string) Option {
	return func(l *Logger) {
		l.name = name
	}
}

// WithLevel 设置日志等级
func WithLevel(level Level) Option {
	return func(l *Logger) {
		l.config.Level = level
	}
}

// WithDevelopment 启用开发模式
func WithDevelopment(dev bool) Option {
	return func(l *Logger) {
		l.config.Development = dev
	}
}
