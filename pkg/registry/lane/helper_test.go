package lane

import (
	"sync"

	"google.golang.org/grpc/balancer"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/resolver"
)

// mockSubConn 模拟 SubConn，用于测试
type mockSubConn struct {
	balancer.SubConn // 嵌入接口以满足 enforceSubConnEmbedding 要求
	id               string
	connectCount     int
	shutdownCount    int
	listener         func(balancer.SubConnState)
}

func (m *mockSubConn) UpdateAddresses([]resolver.Address) {}
func (m *mockSubConn) Connect()                           { m.connectCount++ }
func (m *mockSubConn) GetOrBuildProducer(balancer.ProducerBuilder) (balancer.Producer, func()) {
	return nil, nil
}
func (m *mockSubConn) Shutdown()                                          { m.shutdownCount++ }
func (m *mockSubConn) RegisterHealthListener(func(balancer.SubConnState)) {}

// setState 模拟连接状态变化，触发 balancer 的 StateListener
func (m *mockSubConn) setState(s connectivity.State) {
	m.listener(balancer.SubConnState{ConnectivityState: s})
}

// setFailure 模拟带连接错误的失败状态
func (m *mockSubConn) setFailure(err error) {
	m.listener(balancer.SubConnState{
		ConnectivityState: connectivity.TransientFailure,
		ConnectionError:   err,
	})
}

// mockBalancerClientConn 模拟 balancer.ClientConn，记录创建的连接与发布的状态
type mockBalancerClientConn struct {
	balancer.ClientConn

	subConns  []*mockSubConn
	lastState balancer.State
	stateSet  bool
}

func (m *mockBalancerClientConn) NewSubConn(addrs []resolver.Address, opts balancer.NewSubConnOptions) (balancer.SubConn, error) {
	sc := &mockSubConn{id: addrs[0].Addr, listener: opts.StateListener}
	m.subConns = append(m.subConns, sc)
	return sc, nil
}

func (m *mockBalancerClientConn) UpdateState(s balancer.State) {
	m.lastState = s
	m.stateSet = true
}

func (m *mockBalancerClientConn) ResolveNow(resolver.ResolveNowOptions) {}

// findSubConn 按地址查找模拟连接
func (m *mockBalancerClientConn) findSubConn(addr string) *mockSubConn {
	for _, sc := range m.subConns {
		if sc.id == addr {
			return sc
		}
	}
	return nil
}

// mockResolverClientConn 模拟 resolver.ClientConn，收集状态与错误
type mockResolverClientConn struct {
	resolver.ClientConn

	mu     sync.Mutex
	states []resolver.State
	errs   []error
}

func (m *mockResolverClientConn) UpdateState(s resolver.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, s)
	return nil
}

func (m *mockResolverClientConn) ReportError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

func (m *mockResolverClientConn) stateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

func (m *mockResolverClientConn) errCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errs)
}

func (m *mockResolverClientConn) lastStateAddrs() []resolver.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.states) == 0 {
		return nil
	}
	return m.states[len(m.states)-1].Addresses
}
