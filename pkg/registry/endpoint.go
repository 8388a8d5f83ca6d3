package registry

import (
	"net"
	"strconv"
	"strings"
)

// Endpoint 一个可连接的服务端点
// (Address, Lane) 是连接对账的身份键：元数据抖动不影响身份，避免无谓重连
type Endpoint struct {
	// Address host:port
	Address string
	// Lane 归一化后的泳道名，空串表示默认泳道
	Lane string
}

// NormalizeLane 归一化泳道名：缺失/空白一律折叠为空串
func NormalizeLane(lane string) string {
	return strings.TrimSpace(lane)
}

// hostPort 拆出排序用的 host 和数值端口
// 非法地址整体按 host 处理，端口记 0
func (e Endpoint) hostPort() (string, int) {
	host, portStr, err := net.SplitHostPort(e.Address)
	if err != nil {
		return e.Address, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}

// less 快照排序键：lane → host → port
func (e Endpoint) less(other Endpoint) bool {
	if e.Lane != other.Lane {
		return e.Lane < other.Lane
	}
	h1, p1 := e.hostPort()
	h2, p2 := other.hostPort()
	if h1 != h2 {
		return h1 < h2
	}
	return p1 < p2
}
