package lane

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/resolver"
	"google.golang.org/grpc/status"

	"github.com/lk2023060901/xlane/pkg/config"
	"github.com/lk2023060901/xlane/pkg/logger"
	"github.com/lk2023060901/xlane/pkg/registry"
	regetcd "github.com/lk2023060901/xlane/pkg/registry/etcd"
	"github.com/lk2023060901/xlane/pkg/util/conc"
)

// Builder gRPC resolver 构建器，实现 resolver.Builder
type Builder struct {
	config    *Config
	discovery registry.Discovery
	logger    *logger.Logger
}

// NewBuilder 创建 resolver 构建器，内部持有 etcd 发现客户端
func NewBuilder(cfg *Config) (*Builder, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("lane: invalid config: %w", err)
	}

	discovery, err := regetcd.NewDiscovery(&regetcd.Config{
		Endpoints:   merged.Endpoints,
		DialTimeout: merged.DialTimeout,
		Prefix:      merged.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("lane: create discovery: %w", err)
	}

	return &Builder{
		config:    merged,
		discovery: discovery,
		logger:    logger.Default().Named("lane.resolver"),
	}, nil
}

// NewBuilderWithDiscovery 使用外部发现客户端创建构建器，便于测试和复用连接
func NewBuilderWithDiscovery(cfg *Config, discovery registry.Discovery) (*Builder, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("lane: invalid config: %w", err)
	}
	return &Builder{
		config:    merged,
		discovery: discovery,
		logger:    logger.Default().Named("lane.resolver"),
	}, nil
}

// Scheme 实现 resolver.Builder
func (b *Builder) Scheme() string {
	return Scheme
}

// Build 实现 resolver.Builder，启动轮询
func (b *Builder) Build(target resolver.Target, cc resolver.ClientConn, _ resolver.BuildOptions) (resolver.Resolver, error) {
	service, namespace, port, err := parseTarget(target.Endpoint(), b.config.Namespace)
	if err != nil {
		return nil, err
	}

	r := &laneResolver{
		builder:      b,
		cc:           cc,
		service:      service,
		namespace:    namespace,
		portOverride: port,
		refreshCh:    make(chan struct{}, 1),
		closeCh:      make(chan struct{}),
		logger:       b.logger.WithFields(zap.String("service", service), zap.String("namespace", namespace)),
	}
	r.loop = conc.Go(func() (struct{}, error) {
		r.run()
		return struct{}{}, nil
	})
	return r, nil
}

// Close 关闭发现客户端
func (b *Builder) Close() error {
	return b.discovery.Close()
}

// parseTarget 解析 service.namespace[:port]，命名空间取最后一个点之后的段
func parseTarget(endpoint, defaultNamespace string) (service, namespace string, port int, err error) {
	if endpoint == "" {
		return "", "", 0, ErrInvalidTarget
	}
	host := endpoint
	if h, p, splitErr := net.SplitHostPort(endpoint); splitErr == nil {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return "", "", 0, ErrInvalidTarget
		}
		host = h
	}
	if host == "" {
		return "", "", 0, ErrInvalidTarget
	}
	if idx := strings.LastIndex(host, "."); idx >= 0 {
		service, namespace = host[:idx], host[idx+1:]
		if service == "" || namespace == "" {
			return "", "", 0, ErrInvalidTarget
		}
	} else {
		service, namespace = host, defaultNamespace
	}
	return service, namespace, port, nil
}

// laneResolver 轮询式 resolver，单个 goroutine 拥有全部状态
type laneResolver struct {
	builder   *Builder
	cc        resolver.ClientConn
	service   string
	namespace string

	// portOverride 目标串里显式指定的端口，优先于实例元数据，0 表示未指定
	portOverride int

	refreshing atomic.Bool
	lastGood   *registry.Snapshot
	lastHash   uint64
	published  bool

	refreshCh chan struct{}
	closeCh   chan struct{}
	loop      *conc.Future[struct{}]
	logger    *logger.Logger
}

// run 轮询主循环。首次查询立即执行，之后每次从查询结束起重新计时。
func (r *laneResolver) run() {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-r.closeCh:
			return
		case <-timer.C:
		case <-r.refreshCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		r.refresh()
		timer.Reset(r.builder.config.RefreshInterval)
	}
}

// refresh 执行一次发现查询并在内容变化时发布新地址
func (r *laneResolver) refresh() {
	if !r.refreshing.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		// 刷新期间攒下的触发丢弃，不排队成额外一轮
		select {
		case <-r.refreshCh:
		default:
		}
		r.refreshing.Store(false)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.builder.config.QueryTimeout)
	infos, err := r.builder.discovery.Resolve(ctx, r.namespace, r.service)
	cancel()
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		r.logger.Warn("discovery query failed", zap.Error(err))
		if r.lastGood == nil {
			r.cc.ReportError(fmt.Errorf("lane: resolve %s.%s: %w", r.service, r.namespace, err))
		}
		return
	}

	snapshot := r.snapshotFromInfos(infos)
	if snapshot.Len() == 0 {
		refreshTotal.WithLabelValues("empty").Inc()
		if r.lastGood != nil {
			// 空结果视为瞬态，继续使用上一份有效快照
			r.logger.Warn("discovery returned no instances, keeping last snapshot",
				zap.Int("last_count", r.lastGood.Len()))
			return
		}
		r.cc.ReportError(status.Errorf(codes.Unavailable,
			"no instances for %s.%s", r.service, r.namespace))
		return
	}

	if r.published && snapshot.Hash() == r.lastHash {
		refreshTotal.WithLabelValues("unchanged").Inc()
		return
	}

	refreshTotal.WithLabelValues("changed").Inc()
	r.lastGood = snapshot
	r.lastHash = snapshot.Hash()
	r.published = true
	r.logger.Info("publishing endpoints",
		zap.Int("count", snapshot.Len()), zap.Uint64("hash", snapshot.Hash()))

	addrs := make([]resolver.Address, 0, snapshot.Len())
	for _, ep := range snapshot.Endpoints() {
		addrs = append(addrs, withLane(resolver.Address{Addr: ep.Address}, ep.Lane))
	}
	if err := r.cc.UpdateState(resolver.State{Addresses: addrs}); err != nil {
		r.logger.Warn("update state rejected", zap.Error(err))
	}
}

// snapshotFromInfos 把注册中心元数据转换为去重排序后的端点快照
func (r *laneResolver) snapshotFromInfos(infos []*registry.ServiceInfo) *registry.Snapshot {
	endpoints := make([]registry.Endpoint, 0, len(infos))
	for _, info := range infos {
		host := info.Attr(registry.MetaIP)
		if host == "" {
			host = info.Attr(registry.MetaHost)
		}
		if host == "" {
			r.logger.Warn("instance without address metadata, skipped",
				zap.String("service", info.ServiceName))
			continue
		}
		port := r.instancePort(info)
		endpoints = append(endpoints, registry.Endpoint{
			Address: net.JoinHostPort(host, strconv.Itoa(port)),
			Lane:    info.Attr(registry.MetaLane),
		})
	}
	return registry.NewSnapshot(endpoints)
}

// instancePort 端口优先级：目标串显式端口 > grpc_port > port > 默认端口
func (r *laneResolver) instancePort(info *registry.ServiceInfo) int {
	if r.portOverride != 0 {
		return r.portOverride
	}
	if p := info.Attr(registry.MetaGRPCPort); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			return n
		}
	}
	if p := info.Attr(registry.MetaPort); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			return n
		}
	}
	return r.builder.config.DefaultPort
}

// ResolveNow 实现 resolver.Resolver，触发一次立即刷新，正在刷新时丢弃
func (r *laneResolver) ResolveNow(resolver.ResolveNowOptions) {
	select {
	case r.refreshCh <- struct{}{}:
	default:
	}
}

// Close 实现 resolver.Resolver
func (r *laneResolver) Close() {
	close(r.closeCh)
	r.loop.Wait()
}
