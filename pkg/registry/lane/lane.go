// Package lane 实现泳道感知的 gRPC 客户端路由：
// 轮询式服务发现 resolver 与 lane_round_robin 负载均衡器。
// 两者通过 resolver.Address 上的泳道属性衔接。
package lane

import (
	"google.golang.org/grpc/resolver"
)

const (
	// Scheme resolver scheme，目标格式 etcd:///service.namespace[:port]
	Scheme = "etcd"

	// Name 负载均衡策略名，用于 service config 的 loadBalancingPolicy
	Name = "lane_round_robin"

	// DefaultPort 实例未携带端口属性时的兜底端口
	DefaultPort = 50051
)

// laneAttrKey BalancerAttributes 中泳道属性的 key
type laneAttrKey struct{}

// withLane 把泳道写入地址属性
func withLane(addr resolver.Address, lane string) resolver.Address {
	addr.BalancerAttributes = addr.BalancerAttributes.WithValue(laneAttrKey{}, lane)
	return addr
}

// addressLane 读取地址属性中的泳道，缺失返回空串
func addressLane(addr resolver.Address) string {
	v := addr.BalancerAttributes.Value(laneAttrKey{})
	if v == nil {
		return ""
	}
	lane, _ := v.(string)
	return lane
}

// laneLabel 指标里的泳道标签，空串显示为 default
func laneLabel(lane string) string {
	if lane == "" {
		return "default"
	}
	return lane
}
