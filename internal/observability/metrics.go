package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "community_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_ws_events_total",
			Help: "Total number of websocket lifecycle and client events.",
		},
		[]string{"event"},
	)
	cacheRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_cache_rebuilds_total",
			Help: "Total number of full cache rebuilds from the document store.",
		},
		[]string{"collection"},
	)
	cacheConsistencyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_cache_consistency_failures_total",
			Help: "Terminal cache/store mismatches after one rebuild-and-recheck cycle.",
		},
		[]string{"collection"},
	)
	broadcastDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "community_broadcast_deliveries_total",
			Help: "Fan-out delivery attempts by result.",
		},
		[]string{"result"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "community_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		wsActiveConnections,
		wsEventsTotal,
		cacheRebuildsTotal,
		cacheConsistencyFailuresTotal,
		broadcastDeliveriesTotal,
		amqpPublishErrorsTotal,
	)
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncCacheRebuild(collection string) {
	cacheRebuildsTotal.WithLabelValues(collection).Inc()
}

func IncCacheConsistencyFailure(collection string) {
	cacheConsistencyFailuresTotal.WithLabelValues(collection).Inc()
}

func IncBroadcastDelivery(result string) {
	broadcastDeliveriesTotal.WithLabelValues(result).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
