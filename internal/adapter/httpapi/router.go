// Package httpapi exposes the catalog over HTTP and owns the single
// error boundary where domain errors become wire envelopes.
package httpapi

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"faultline/internal/catalog"
	"faultline/internal/fault"
)

// Router builds the gin engine with all routes and the error boundary
// attached.
func Router(svc *catalog.Service, builder *fault.Builder, log *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(log))
	r.Use(errorBoundary(builder, log))

	h := &handlers{svc: svc}

	r.GET("/healthz", h.health)
	r.GET("/items/:id", wrap(h.getItem))
	r.POST("/items", wrap(h.createItem))
	r.DELETE("/items/:id", wrap(h.deleteItem))
	r.GET("/items/:id/quote", wrap(h.quoteItem))

	return r
}

// handlerFunc is a gin handler that may fail. The returned error is
// converted to an envelope exactly once, by the boundary middleware.
type handlerFunc func(c *gin.Context) error

func wrap(h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(c); err != nil {
			_ = c.Error(err)
		}
	}
}
