package lane

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/balancer"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/resolver"
)

func newTestBalancer() (*laneBalancer, *mockBalancerClientConn) {
	cc := &mockBalancerClientConn{}
	b := (&builder{}).Build(cc, balancer.BuildOptions{}).(*laneBalancer)
	return b, cc
}

func clientConnState(addrs ...resolver.Address) balancer.ClientConnState {
	return balancer.ClientConnState{ResolverState: resolver.State{Addresses: addrs}}
}

func laneAddr(addr, lane string) resolver.Address {
	return withLane(resolver.Address{Addr: addr}, lane)
}

func TestBalancer_CreatesSubConns(t *testing.T) {
	b, cc := newTestBalancer()

	err := b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", "gray"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cc.subConns) != 2 {
		t.Fatalf("expected 2 subconns, got %d", len(cc.subConns))
	}
	for _, sc := range cc.subConns {
		if sc.connectCount != 1 {
			t.Errorf("%s: expected Connect once, got %d", sc.id, sc.connectCount)
		}
	}
	if cc.lastState.ConnectivityState != connectivity.Connecting {
		t.Errorf("expected Connecting, got %v", cc.lastState.ConnectivityState)
	}
}

func TestBalancer_ReconcileRemovesStale(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", ""),
	))
	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
	))

	stale := cc.findSubConn("10.0.0.2:50051")
	if stale.shutdownCount != 1 {
		t.Errorf("expected stale subconn shutdown, got %d", stale.shutdownCount)
	}
	kept := cc.findSubConn("10.0.0.1:50051")
	if kept.shutdownCount != 0 {
		t.Error("kept subconn must not be shut down")
	}
	if len(cc.subConns) != 2 {
		t.Fatalf("no new subconn should be created, got %d", len(cc.subConns))
	}
}

func TestBalancer_SameAddressDifferentLanes(t *testing.T) {
	b, cc := newTestBalancer()

	// 地址相同但泳道不同是两条独立连接
	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.1:50051", "gray"),
	))

	if len(cc.subConns) != 2 {
		t.Fatalf("expected 2 subconns, got %d", len(cc.subConns))
	}
}

func TestBalancer_EmptyAddressList(t *testing.T) {
	b, cc := newTestBalancer()

	err := b.UpdateClientConnState(clientConnState())
	if !errors.Is(err, balancer.ErrBadResolverState) {
		t.Fatalf("expected ErrBadResolverState, got %v", err)
	}
	if cc.lastState.ConnectivityState != connectivity.TransientFailure {
		t.Errorf("expected TransientFailure, got %v", cc.lastState.ConnectivityState)
	}
	if _, pickErr := cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: context.Background()}); pickErr == nil {
		t.Error("picker should fail when there are no endpoints")
	}
}

func TestBalancer_ReadyAggregation(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", "gray"),
	))

	cc.findSubConn("10.0.0.1:50051").setState(connectivity.Ready)
	if cc.lastState.ConnectivityState != connectivity.Ready {
		t.Fatalf("one ready conn should make the channel Ready, got %v", cc.lastState.ConnectivityState)
	}

	result, err := cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: context.Background()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SubConn.(*mockSubConn).id != "10.0.0.1:50051" {
		t.Error("expected the ready default-lane subconn")
	}
}

func TestBalancer_LaneRouting(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", "gray"),
	))
	cc.findSubConn("10.0.0.1:50051").setState(connectivity.Ready)
	cc.findSubConn("10.0.0.2:50051").setState(connectivity.Ready)

	result, err := cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: laneContext("gray")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SubConn.(*mockSubConn).id != "10.0.0.2:50051" {
		t.Error("gray request should route to the gray subconn")
	}

	result, err = cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: context.Background()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SubConn.(*mockSubConn).id != "10.0.0.1:50051" {
		t.Error("laneless request should route to the default subconn")
	}
}

func TestBalancer_FallbackWhenLaneNotReady(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", "gray"),
	))
	// 只有默认泳道就绪
	cc.findSubConn("10.0.0.1:50051").setState(connectivity.Ready)

	result, err := cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: laneContext("gray")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SubConn.(*mockSubConn).id != "10.0.0.1:50051" {
		t.Error("gray request should fall back to the default lane")
	}
}

func TestBalancer_AllTransientFailure(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", ""),
	))
	cc.findSubConn("10.0.0.1:50051").setState(connectivity.TransientFailure)
	cc.findSubConn("10.0.0.2:50051").setState(connectivity.TransientFailure)

	if cc.lastState.ConnectivityState != connectivity.TransientFailure {
		t.Fatalf("expected TransientFailure, got %v", cc.lastState.ConnectivityState)
	}
	if _, err := cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: context.Background()}); err == nil {
		t.Error("picker should fail when every conn is down")
	}
}

func TestBalancer_TransientFailureCarriesConnectionError(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(laneAddr("10.0.0.1:50051", "")))

	dialErr := errors.New("connection refused")
	cc.findSubConn("10.0.0.1:50051").setFailure(dialErr)

	if cc.lastState.ConnectivityState != connectivity.TransientFailure {
		t.Fatalf("expected TransientFailure, got %v", cc.lastState.ConnectivityState)
	}
	_, err := cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: context.Background()})
	if !errors.Is(err, dialErr) {
		t.Errorf("picker error should wrap the connection error, got %v", err)
	}
}

func TestBalancer_ConnectingWhileMixed(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", ""),
	))
	cc.findSubConn("10.0.0.1:50051").setState(connectivity.TransientFailure)
	cc.findSubConn("10.0.0.2:50051").setState(connectivity.Connecting)

	if cc.lastState.ConnectivityState != connectivity.Connecting {
		t.Fatalf("expected Connecting, got %v", cc.lastState.ConnectivityState)
	}
	if _, err := cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: context.Background()}); !errors.Is(err, balancer.ErrNoSubConnAvailable) {
		t.Errorf("expected ErrNoSubConnAvailable, got %v", err)
	}
}

func TestBalancer_IdleTriggersReconnect(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(laneAddr("10.0.0.1:50051", "")))
	sc := cc.findSubConn("10.0.0.1:50051")

	sc.setState(connectivity.Ready)
	sc.setState(connectivity.Idle)

	// Build 时一次，Idle 回调再一次
	if sc.connectCount != 2 {
		t.Errorf("expected reconnect on idle, connect count %d", sc.connectCount)
	}
}

func TestBalancer_ReadyRemovedFromRotation(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", ""),
	))
	sc1 := cc.findSubConn("10.0.0.1:50051")
	sc2 := cc.findSubConn("10.0.0.2:50051")
	sc1.setState(connectivity.Ready)
	sc2.setState(connectivity.Ready)
	sc2.setState(connectivity.TransientFailure)

	for i := 0; i < 4; i++ {
		result, err := cc.lastState.Picker.Pick(balancer.PickInfo{Ctx: context.Background()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.SubConn != sc1 {
			t.Fatal("failed subconn must leave the rotation")
		}
	}
}

func TestBalancer_ResolverErrorKeepsConns(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(laneAddr("10.0.0.1:50051", "")))
	cc.findSubConn("10.0.0.1:50051").setState(connectivity.Ready)

	b.ResolverError(errors.New("lookup failed"))

	// 已有连接时继续服务
	if cc.lastState.ConnectivityState != connectivity.Ready {
		t.Errorf("resolver error must not tear down ready conns, got %v", cc.lastState.ConnectivityState)
	}
}

func TestBalancer_Close(t *testing.T) {
	b, cc := newTestBalancer()

	_ = b.UpdateClientConnState(clientConnState(
		laneAddr("10.0.0.1:50051", ""),
		laneAddr("10.0.0.2:50051", "gray"),
	))
	b.Close()

	for _, sc := range cc.subConns {
		if sc.shutdownCount != 1 {
			t.Errorf("%s: expected shutdown, got %d", sc.id, sc.shutdownCount)
		}
	}
}
