package interceptor

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/lk2023060901/xlane/pkg/logger"
	"github.com/lk2023060901/xlane/pkg/trace"
)

// ServerTraceInterceptor Server 端链路拦截器（Unary）。
// 解析入站 traceparent/tracestate，解析失败时生成新的根上下文，
// 结果放入 context 供业务代码与出站调用使用。
func ServerTraceInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(extractTrace(ctx), req)
	}
}

// StreamServerTraceInterceptor Server 端链路拦截器（Stream）
func StreamServerTraceInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return handler(srv, &tracedServerStream{ServerStream: ss, ctx: extractTrace(ss.Context())})
	}
}

// ClientTraceInterceptor Client 端链路拦截器（Unary）。
// 生成下一跳的 traceparent/tracestate 写入出站 metadata，
// 并把含泳道的链路信息留在 context 里供负载均衡器选路。
func ClientTraceInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(injectTrace(ctx), method, req, reply, cc, opts...)
	}
}

// StreamClientTraceInterceptor Client 端链路拦截器（Stream）
func StreamClientTraceInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(injectTrace(ctx), desc, cc, method, opts...)
	}
}

// extractTrace 从入站 metadata 还原链路信息。
// 头非法时照常恢复出新链路，只留 debug 日志
func extractTrace(ctx context.Context) context.Context {
	var traceparent, tracestate string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(trace.TraceparentHeader); len(v) > 0 {
			traceparent = v[0]
		}
		if v := md.Get(trace.TracestateHeader); len(v) > 0 {
			tracestate = v[0]
		}
	}

	info := trace.Parse(traceparent, tracestate)
	if traceparent != "" {
		if _, ok := trace.ParseTraceparent(traceparent); !ok {
			logger.Default().Named("grpc.trace").Debug("invalid traceparent header, starting new trace",
				zap.String("traceparent", traceparent))
		}
	}
	if tracestate != "" && info.State == "" {
		logger.Default().Named("grpc.trace").Debug("invalid tracestate header dropped",
			zap.String("tracestate", tracestate))
	}
	return trace.NewContext(ctx, info)
}

// injectTrace 生成下一跳并写入出站 metadata。
// context 中没有链路信息时以默认泳道新建根。
func injectTrace(ctx context.Context) context.Context {
	info, ok := trace.FromContext(ctx)
	if !ok {
		info = trace.NewRoot("")
	}
	hop := info.NextHop()

	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	md.Set(trace.TraceparentHeader, hop.Traceparent())
	if state := hop.Tracestate(); state != "" {
		md.Set(trace.TracestateHeader, state)
	} else {
		md.Delete(trace.TracestateHeader)
	}

	return trace.NewContext(metadata.NewOutgoingContext(ctx, md), hop)
}

// tracedServerStream 替换流的 context
type tracedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *tracedServerStream) Context() context.Context {
	return s.ctx
}
