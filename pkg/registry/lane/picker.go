package lane

import (
	"sync/atomic"

	"google.golang.org/grpc/balancer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lk2023060901/xlane/pkg/registry"
	"github.com/lk2023060901/xlane/pkg/trace"
)

// lanePicker 按泳道分桶的轮询 picker。
// buckets 构建后只读，游标为原子计数，Pick 无锁。
type lanePicker struct {
	buckets map[string][]balancer.SubConn
	cursors map[string]*atomic.Uint64
}

var _ balancer.Picker = (*lanePicker)(nil)

// newLanePicker 复制游标映射，计数器本身按指针共享，
// 轮询进度跨 picker 重建保留，且 balancer 后续增删泳道不会竞争
func newLanePicker(buckets map[string][]balancer.SubConn, cursors map[string]*atomic.Uint64) *lanePicker {
	owned := make(map[string]*atomic.Uint64, len(cursors))
	for lane, cursor := range cursors {
		owned[lane] = cursor
	}
	return &lanePicker{buckets: buckets, cursors: owned}
}

// Pick 实现 balancer.Picker。
// 请求泳道没有就绪连接时回退到默认泳道，且只回退这一跳。
func (p *lanePicker) Pick(info balancer.PickInfo) (balancer.PickResult, error) {
	lane := ""
	if ti, ok := trace.FromContext(info.Ctx); ok {
		lane = registry.NormalizeLane(ti.Lane)
	}

	effective := lane
	fallback := false
	if len(p.buckets[effective]) == 0 && effective != "" {
		effective = ""
		fallback = true
	}

	bucket := p.buckets[effective]
	if len(bucket) == 0 {
		pickErrorTotal.WithLabelValues(laneLabel(lane)).Inc()
		if lane == "" {
			return balancer.PickResult{}, status.Error(codes.Unavailable,
				"no ready connections in default lane")
		}
		return balancer.PickResult{}, status.Errorf(codes.Unavailable,
			"no ready connections in lane %q or default lane", lane)
	}

	cursor, ok := p.cursors[effective]
	if !ok {
		// 游标由 balancer 预建，这里兜底避免空指针
		cursor = &atomic.Uint64{}
	}
	idx := (cursor.Add(1) - 1) % uint64(len(bucket))
	pickTotal.WithLabelValues(laneLabel(effective), boolLabel(fallback)).Inc()
	return balancer.PickResult{SubConn: bucket[idx]}, nil
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// errPicker 所有请求返回同一错误
type errPicker struct {
	err error
}

var _ balancer.Picker = (*errPicker)(nil)

func (p *errPicker) Pick(balancer.PickInfo) (balancer.PickResult, error) {
	return balancer.PickResult{}, p.err
}
