package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders placed at checkout",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of rejected checkout attempts",
	}, []string{"reason"})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Total number of order status transitions",
	}, []string{"status"})

	PaymentRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_requests_total",
		Help: "Total number of payment requests sent to the gateway",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successfully verified payments",
	})

	PaymentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed or rejected payments",
	}, []string{"reason"})

	TransactionsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_expired_total",
		Help: "Total number of pending transactions expired by the sweep",
	})

	GatewayRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_gateway_latency_seconds",
		Help:    "Latency of payment gateway calls",
		Buckets: prometheus.DefBuckets,
	})

	SMSSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sms_sent_total",
		Help: "Total number of SMS messages sent",
	}, []string{"kind"})

	SMSFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sms_failed_total",
		Help: "Total number of SMS send failures",
	}, []string{"kind"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of catalog cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of catalog cache misses",
	})

	CacheErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_errors_total",
		Help: "Total number of cache-layer errors bypassed",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
