// internal/client/metrics.go
package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_reddit_requests",
	Help: "Number of Reddit API requests, by endpoint and outcome",
}, []string{"endpoint", "status"})
