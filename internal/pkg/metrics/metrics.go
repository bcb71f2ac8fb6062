// Package metrics holds the Prometheus collectors of the service
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons used as the session_rejections_total label
const (
	ReasonInvalidRange     = "invalid_range"
	ReasonCapacity         = "capacity_exceeded"
	ReasonInvalidInterval  = "invalid_interval"
	ReasonScheduleConflict = "schedule_conflict"
	ReasonLockTimeout      = "lock_timeout"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Course sessions created.",
	})

	sessionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_rejections_total",
		Help: "Session creations rejected, by reason.",
	}, []string{"reason"})

	attendanceMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_records_marked_total",
		Help: "Attendance rows created or updated.",
	})
)

// SessionCreated counts a persisted session
func SessionCreated() { sessionsCreated.Inc() }

// SessionRejected counts a refused session creation
func SessionRejected(reason string) { sessionRejections.WithLabelValues(reason).Inc() }

// AttendanceMarked counts n applied attendance rows
func AttendanceMarked(n int) { attendanceMarked.Add(float64(n)) }

// Middleware records request count and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
