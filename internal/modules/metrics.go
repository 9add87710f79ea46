// internal/modules/metrics.go
package modules

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var webhookPosts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modbot_webhook_posts",
	Help: "Number of webhook notifications sent, by HTTP status",
}, []string{"status"})

var reportsFiled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "modbot_reports_filed",
	Help: "Number of image rule reports filed",
})

var reportsDeduped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "modbot_reports_deduped",
	Help: "Number of image rule reports skipped because the post was already reported",
})
