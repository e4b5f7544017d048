package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipevault-backend/internal/observability"
)

// Metrics writes the current counters in Prometheus text exposition format.
// When metrics are disabled the endpoint answers 404.
func Metrics(c *gin.Context) {
	m := observability.Current()
	if m == nil {
		c.String(http.StatusNotFound, "metrics disabled")
		return
	}
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		c.String(http.StatusInternalServerError, "metrics collection failed")
		return
	}
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
