package conc

import "errors"

var (
	// ErrPanic 任务执行时发生 panic
	ErrPanic = errors.New("conc: task panicked")

	// ErrPoolReleased 协程池已释放
	ErrPoolReleased = errors.New("conc: pool released")
)
