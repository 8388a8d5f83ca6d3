package lane

import "github.com/prometheus/client_golang/prometheus"

var (
	// pickTotal 按泳道统计的选取次数，fallback 标记是否回退到默认泳道
	pickTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xlane",
			Subsystem: "balancer",
			Name:      "pick_total",
			Help:      "Total number of successful picks, by effective lane.",
		},
		[]string{"lane", "fallback"},
	)

	// pickErrorTotal 没有可用连接导致的失败
	pickErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xlane",
			Subsystem: "balancer",
			Name:      "pick_error_total",
			Help:      "Total number of picks that failed because no connection was ready.",
		},
		[]string{"lane"},
	)

	// refreshTotal 服务发现轮询结果统计
	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xlane",
			Subsystem: "resolver",
			Name:      "refresh_total",
			Help:      "Total number of discovery refreshes, by outcome.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(pickTotal, pickErrorTotal, refreshTotal)
}
