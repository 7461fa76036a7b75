package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperationsTotal 歌单存储操作计数
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildcats_playlist_store_operations_total",
			Help: "Total number of playlist store operations",
		},
		[]string{"operation", "status"},
	)

	// StoreOperationDuration 歌单存储操作耗时
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wildcats_playlist_store_operation_duration_seconds",
			Help:    "Playlist store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// CacheRequestsTotal 歌单缓存命中情况
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildcats_playlist_cache_requests_total",
			Help: "Total number of playlist cache lookups by result",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal API 请求计数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildcats_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)
)

// RecordStoreOperation 记录一次存储操作的结果和耗时
func RecordStoreOperation(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
