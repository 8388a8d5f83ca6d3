// Package registry 定义服务注册与发现的数据模型和接口。
package registry

import "context"

// 实例元数据的约定属性名
const (
	// MetaIP 实例 IPv4 地址
	MetaIP = "ip"
	// MetaHost MetaIP 缺失时的备用地址属性
	MetaHost = "host"
	// MetaGRPCPort gRPC 专用端口
	MetaGRPCPort = "grpc_port"
	// MetaPort 通用端口
	MetaPort = "port"
	// MetaLane 实例所属泳道
	MetaLane = "lane"
)

// ServiceInfo 一个已注册实例的原始属性集
type ServiceInfo struct {
	// ServiceName 服务名称
	ServiceName string `json:"service_name"`
	// Metadata 实例属性（ip、port、lane 等）
	Metadata map[string]string `json:"metadata"`
}

// Attr 读取实例属性，缺失返回空串
func (s *ServiceInfo) Attr(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// Registrar 服务注册接口
type Registrar interface {
	// Register 注册服务实例
	Register(ctx context.Context, info *ServiceInfo) error
	// Deregister 取消注册
	Deregister(ctx context.Context) error
}

// Discovery 服务发现接口（拉取式）
type Discovery interface {
	// Resolve 查询指定命名空间下某服务的全部实例
	Resolve(ctx context.Context, namespace, serviceName string) ([]*ServiceInfo, error)
	// Close 释放后端客户端
	Close() error
}
