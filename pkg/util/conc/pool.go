package conc

import (
	"github.com/panjf2000/ants/v2"
)

// DefaultPoolSize 默认协程池大小
const DefaultPoolSize = 1024

// Pool 基于 ants 的类型安全协程池
type Pool[T any] struct {
	pool *ants.Pool
}

// NewPool 创建指定大小的协程池
func NewPool[T any](size int) *Pool[T] {
	if size <= 0 {
		size = DefaultPoolSize
	}

	// ants.NewPool 只有 size 非法时才返回错误，上面已兜底
	pool, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		panic(err)
	}

	return &Pool[T]{pool: pool}
}

// NewDefaultPool 创建默认大小的协程池
func NewDefaultPool[T any]() *Pool[T] {
	return NewPool[T](DefaultPoolSize)
}

// Submit 提交任务到池中执行
func (p *Pool[T]) Submit(fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	err := p.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.complete(zero, ErrPanic)
			}
		}()

		result, err := fn()
		f.complete(result, err)
	})
	if err != nil {
		var zero T
		f.complete(zero, err)
	}

	return f
}

// Running 返回正在运行的任务数
func (p *Pool[T]) Running() int {
	return p.pool.Running()
}

// Release 释放协程池
func (p *Pool[T]) Release() {
	p.pool.Release()
}
