package trace

import "context"

// contextKey context 槽位的私有 key 类型
type contextKey struct{}

// NewContext 把 TraceInfo 放入 context
// 调用级传递，并发调用互不干扰
func NewContext(ctx context.Context, info TraceInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// FromContext 从 context 中取出 TraceInfo
func FromContext(ctx context.Context) (TraceInfo, bool) {
	info, ok := ctx.Value(contextKey{}).(TraceInfo)
	return info, ok
}
