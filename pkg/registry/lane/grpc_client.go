package lane

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lk2023060901/xlane/pkg/grpc/interceptor"
)

// serviceConfig 默认启用 lane_round_robin 策略
var serviceConfig = fmt.Sprintf(`{"loadBalancingPolicy": %q}`, Name)

// DialService 连接一个注册在 etcd 中的服务。
// target 形如 service.namespace 或 service.namespace:port，
// 默认注入链路透传拦截器，额外的 DialOption 追加在默认选项之后。
func DialService(builder *Builder, target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithResolvers(builder),
		grpc.WithDefaultServiceConfig(serviceConfig),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(interceptor.ClientTraceInterceptor()),
		grpc.WithChainStreamInterceptor(interceptor.StreamClientTraceInterceptor()),
	}, opts...)

	conn, err := grpc.NewClient(fmt.Sprintf("%s:///%s", Scheme, target), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("lane: dial %s: %w", target, err)
	}
	return conn, nil
}
