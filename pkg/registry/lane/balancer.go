package lane

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc/balancer"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/resolver"

	"github.com/lk2023060901/xlane/pkg/logger"
)

func init() {
	balancer.Register(&builder{})
}

// builder 实现 balancer.Builder
type builder struct{}

// Name 实现 balancer.Builder
func (*builder) Name() string {
	return Name
}

// Build 实现 balancer.Builder
func (*builder) Build(cc balancer.ClientConn, _ balancer.BuildOptions) balancer.Balancer {
	return &laneBalancer{
		cc:      cc,
		conns:   make(map[connKey]*laneSubConn),
		cursors: make(map[string]*atomic.Uint64),
		logger:  logger.Default().Named("lane.balancer"),
	}
}

// connKey 连接的身份键，地址与泳道共同决定
type connKey struct {
	addr string
	lane string
}

// laneSubConn 跟踪单条连接的最近状态
type laneSubConn struct {
	sc      balancer.SubConn
	key     connKey
	state   connectivity.State
	lastErr error
}

// laneBalancer 泳道感知的轮询负载均衡器。
// gRPC 串行执行所有回调，内部状态无需加锁；
// picker 持有的游标按泳道共享，重建 picker 不会打断轮询进度。
type laneBalancer struct {
	cc      balancer.ClientConn
	conns   map[connKey]*laneSubConn
	cursors map[string]*atomic.Uint64
	logger  *logger.Logger
}

var _ balancer.Balancer = (*laneBalancer)(nil)

// UpdateClientConnState 实现 balancer.Balancer，与最新地址列表对账
func (b *laneBalancer) UpdateClientConnState(state balancer.ClientConnState) error {
	wanted := make(map[connKey]bool, len(state.ResolverState.Addresses))
	for _, addr := range state.ResolverState.Addresses {
		key := connKey{addr: addr.Addr, lane: addressLane(addr)}
		wanted[key] = true
		if _, ok := b.conns[key]; ok {
			continue
		}

		conn := &laneSubConn{key: key, state: connectivity.Idle}
		sc, err := b.cc.NewSubConn([]resolver.Address{addr}, balancer.NewSubConnOptions{
			StateListener: func(scs balancer.SubConnState) {
				b.updateSubConnState(conn, scs)
			},
		})
		if err != nil {
			b.logger.Warn("create subconn failed",
				zap.String("addr", key.addr), zap.String("lane", laneLabel(key.lane)), zap.Error(err))
			continue
		}
		conn.sc = sc
		b.conns[key] = conn
		if _, ok := b.cursors[key.lane]; !ok {
			b.cursors[key.lane] = &atomic.Uint64{}
		}
		sc.Connect()
	}

	for key, conn := range b.conns {
		if wanted[key] {
			continue
		}
		conn.sc.Shutdown()
		delete(b.conns, key)
	}

	if len(b.conns) == 0 {
		b.cc.UpdateState(balancer.State{
			ConnectivityState: connectivity.TransientFailure,
			Picker:            &errPicker{err: ErrNoEndpoints},
		})
		return balancer.ErrBadResolverState
	}

	b.publish()
	return nil
}

// ResolverError 实现 balancer.Balancer
func (b *laneBalancer) ResolverError(err error) {
	b.logger.Warn("resolver error", zap.Error(err))
	if len(b.conns) == 0 {
		b.cc.UpdateState(balancer.State{
			ConnectivityState: connectivity.TransientFailure,
			Picker:            &errPicker{err: fmt.Errorf("lane: resolver error: %w", err)},
		})
	}
}

// UpdateSubConnState 实现 balancer.Balancer，新版 gRPC 走 StateListener
func (b *laneBalancer) UpdateSubConnState(balancer.SubConn, balancer.SubConnState) {}

// updateSubConnState 连接状态回调，与 UpdateClientConnState 同一串行上下文
func (b *laneBalancer) updateSubConnState(conn *laneSubConn, state balancer.SubConnState) {
	// 已被对账移除的连接仍可能收到迟到回调，忽略
	if current, ok := b.conns[conn.key]; !ok || current != conn {
		return
	}
	conn.state = state.ConnectivityState
	if state.ConnectivityState == connectivity.TransientFailure {
		conn.lastErr = state.ConnectionError
	}

	switch state.ConnectivityState {
	case connectivity.Shutdown:
		return
	case connectivity.Idle:
		conn.sc.Connect()
	}

	b.publish()
}

// publish 重算聚合状态并安装新 picker
func (b *laneBalancer) publish() {
	buckets := make(map[string][]balancer.SubConn)
	anyReady := false
	var lastErr error
	allTransient := len(b.conns) > 0

	for key, conn := range b.conns {
		switch conn.state {
		case connectivity.Ready:
			anyReady = true
			allTransient = false
			buckets[key.lane] = append(buckets[key.lane], conn.sc)
		case connectivity.TransientFailure:
			if conn.lastErr != nil {
				lastErr = fmt.Errorf("lane: connection to %s: %w", key.addr, conn.lastErr)
			} else {
				lastErr = fmt.Errorf("lane: connection to %s unavailable", key.addr)
			}
		default:
			allTransient = false
		}
	}

	switch {
	case anyReady:
		b.cc.UpdateState(balancer.State{
			ConnectivityState: connectivity.Ready,
			Picker:            newLanePicker(buckets, b.cursors),
		})
	case allTransient:
		if lastErr == nil {
			lastErr = ErrNoEndpoints
		}
		b.cc.UpdateState(balancer.State{
			ConnectivityState: connectivity.TransientFailure,
			Picker:            &errPicker{err: lastErr},
		})
	default:
		b.cc.UpdateState(balancer.State{
			ConnectivityState: connectivity.Connecting,
			Picker:            &errPicker{err: balancer.ErrNoSubConnAvailable},
		})
	}
}

// ExitIdle 实现 balancer.ExitIdler
func (b *laneBalancer) ExitIdle() {
	for _, conn := range b.conns {
		if conn.state == connectivity.Idle {
			conn.sc.Connect()
		}
	}
}

// Close 实现 balancer.Balancer
func (b *laneBalancer) Close() {
	for key, conn := range b.conns {
		conn.sc.Shutdown()
		delete(b.conns, key)
	}
}
