package lane

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"google.golang.org/grpc/balancer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lk2023060901/xlane/pkg/trace"
)

// laneContext 构造携带泳道的请求上下文
func laneContext(lane string) context.Context {
	info := trace.NewRoot(lane)
	return trace.NewContext(context.Background(), info)
}

func newCursors(lanes ...string) map[string]*atomic.Uint64 {
	cursors := make(map[string]*atomic.Uint64, len(lanes))
	for _, lane := range lanes {
		cursors[lane] = &atomic.Uint64{}
	}
	return cursors
}

func TestLanePicker_RoundRobin(t *testing.T) {
	sc1 := &mockSubConn{id: "sc1"}
	sc2 := &mockSubConn{id: "sc2"}
	sc3 := &mockSubConn{id: "sc3"}

	picker := newLanePicker(
		map[string][]balancer.SubConn{"": {sc1, sc2, sc3}},
		newCursors(""),
	)

	counts := make(map[string]int)
	for i := 0; i < 9; i++ {
		result, err := picker.Pick(balancer.PickInfo{Ctx: context.Background()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		counts[result.SubConn.(*mockSubConn).id]++
	}

	// 纯轮询，9 次选择必须三等分
	for _, id := range []string{"sc1", "sc2", "sc3"} {
		if counts[id] != 3 {
			t.Errorf("%s count: got %d, expected 3", id, counts[id])
		}
	}
}

func TestLanePicker_LanePreferred(t *testing.T) {
	gray := &mockSubConn{id: "gray"}
	def := &mockSubConn{id: "default"}

	picker := newLanePicker(
		map[string][]balancer.SubConn{"gray": {gray}, "": {def}},
		newCursors("gray", ""),
	)

	for i := 0; i < 5; i++ {
		result, err := picker.Pick(balancer.PickInfo{Ctx: laneContext("gray")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.SubConn != gray {
			t.Fatal("expected pick from gray lane")
		}
	}
}

func TestLanePicker_FallbackToDefault(t *testing.T) {
	def := &mockSubConn{id: "default"}

	picker := newLanePicker(
		map[string][]balancer.SubConn{"": {def}},
		newCursors(""),
	)

	result, err := picker.Pick(balancer.PickInfo{Ctx: laneContext("gray")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SubConn != def {
		t.Fatal("expected fallback to default lane")
	}
}

func TestLanePicker_NoFallbackChain(t *testing.T) {
	// 泳道和默认泳道都没有就绪连接时必须失败，不能落到其他泳道
	other := &mockSubConn{id: "other"}

	picker := newLanePicker(
		map[string][]balancer.SubConn{"blue": {other}},
		newCursors("blue"),
	)

	_, err := picker.Pick(balancer.PickInfo{Ctx: laneContext("gray")})
	if err == nil {
		t.Fatal("expected error")
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v", err)
	}
	if !strings.Contains(st.Message(), `"gray"`) {
		t.Errorf("error should name the requested lane: %s", st.Message())
	}
}

func TestLanePicker_EmptyDefault(t *testing.T) {
	picker := newLanePicker(map[string][]balancer.SubConn{}, newCursors())

	_, err := picker.Pick(balancer.PickInfo{Ctx: context.Background()})
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}

func TestLanePicker_LaneNormalization(t *testing.T) {
	gray := &mockSubConn{id: "gray"}

	picker := newLanePicker(
		map[string][]balancer.SubConn{"gray": {gray}},
		newCursors("gray"),
	)

	result, err := picker.Pick(balancer.PickInfo{Ctx: laneContext("  gray  ")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SubConn != gray {
		t.Fatal("lane with surrounding whitespace should match gray bucket")
	}
}

func TestLanePicker_CursorSurvivesRebuild(t *testing.T) {
	sc1 := &mockSubConn{id: "sc1"}
	sc2 := &mockSubConn{id: "sc2"}
	cursors := newCursors("")
	buckets := map[string][]balancer.SubConn{"": {sc1, sc2}}

	p1 := newLanePicker(buckets, cursors)
	first, _ := p1.Pick(balancer.PickInfo{Ctx: context.Background()})

	// 重建 picker 共享同一组游标，轮询进度不回退
	p2 := newLanePicker(buckets, cursors)
	second, _ := p2.Pick(balancer.PickInfo{Ctx: context.Background()})

	if first.SubConn == second.SubConn {
		t.Error("rebuilt picker should continue rotation, not restart it")
	}
}
