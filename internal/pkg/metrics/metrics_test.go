package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/sessions/:sessionId", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/sessions/:sessionId", "418"))
	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/sessions/:sessionId", "418"))

	if after-before != 2 {
		t.Errorf("expected 2 requests on the route template, got %v", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(sessionRejections.WithLabelValues(ReasonCapacity))
	SessionRejected(ReasonCapacity)
	if got := testutil.ToFloat64(sessionRejections.WithLabelValues(ReasonCapacity)) - before; got != 1 {
		t.Errorf("expected one capacity rejection, got %v", got)
	}

	marked := testutil.ToFloat64(attendanceMarked)
	AttendanceMarked(5)
	if got := testutil.ToFloat64(attendanceMarked) - marked; got != 5 {
		t.Errorf("expected 5 marked rows, got %v", got)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SessionCreated()
	r := gin.New()
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "sessions_created_total") {
		t.Error("expected sessions_created_total in exposition")
	}
}
