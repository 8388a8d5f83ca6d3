package registry

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Snapshot 一次服务发现结果的不可变视图
// 去重（身份键首见为准）、按 lane→host→port 排序，并带有确定性哈希，
// 下游用哈希判断端点集是否真的变化
type Snapshot struct {
	endpoints []Endpoint
	hash      uint64
}

// NewSnapshot 从端点列表构建快照
func NewSnapshot(endpoints []Endpoint) *Snapshot {
	seen := make(map[Endpoint]bool, len(endpoints))
	deduped := make([]Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		ep.Lane = NormalizeLane(ep.Lane)
		if seen[ep] {
			continue
		}
		seen[ep] = true
		deduped = append(deduped, ep)
	}

	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].less(deduped[j])
	})

	return &Snapshot{
		endpoints: deduped,
		hash:      hashEndpoints(deduped),
	}
}

// Endpoints 返回排序后的端点列表，调用方不得修改
func (s *Snapshot) Endpoints() []Endpoint {
	return s.endpoints
}

// Hash 返回快照哈希
func (s *Snapshot) Hash() uint64 {
	return s.hash
}

// Len 端点数量
func (s *Snapshot) Len() int {
	return len(s.endpoints)
}

// Empty 快照是否为空
func (s *Snapshot) Empty() bool {
	return len(s.endpoints) == 0
}

// hashEndpoints 对排序后的端点列表计算 xxhash
func hashEndpoints(endpoints []Endpoint) uint64 {
	d := xxhash.New()
	for _, ep := range endpoints {
		host, port := ep.hostPort()
		// 分隔符防止字段拼接歧义
		_, _ = d.WriteString(ep.Lane)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(host)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(strconv.Itoa(port))
		_, _ = d.WriteString("\n")
	}
	return d.Sum64()
}
