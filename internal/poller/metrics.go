// internal/poller/metrics.go
package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_poll_cycles",
	Help: "Number of completed poll cycles, by outcome",
}, []string{"status"})

var postsFetched = promauto.NewCounter(prometheus.CounterOpts{
	Name: "modbot_posts_fetched",
	Help: "Number of new posts dispatched to modules",
})

var moduleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_module_errors",
	Help: "Number of module failures while processing a batch",
}, []string{"module"})

var cyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "modbot_cycles_skipped",
	Help: "Number of poll ticks dropped because a cycle was still running",
})
