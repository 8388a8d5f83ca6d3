// Package conc 提供类型安全的 goroutine 工具。
// 后台任务一律通过 Go/Pool 启动，不使用裸 goroutine，便于统一捕获 panic。
package conc

import (
	"fmt"
	"sync"
)

// Future 异步任务的结果句柄
type Future[T any] struct {
	done   chan struct{}
	result T
	err    error
	once   sync.Once
}

// Go 启动一个异步任务并返回 Future
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer func() {
			if p := recover(); p != nil {
				f.complete(*new(T), fmt.Errorf("conc: panic recovered: %v", p))
			}
		}()

		result, err := fn()
		f.complete(result, err)
	}()

	return f
}

// Wait 阻塞等待任务完成
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.result, f.err
}

// Done 返回任务完成通知 channel
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[T]) complete(result T, err error) {
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
	})
}
