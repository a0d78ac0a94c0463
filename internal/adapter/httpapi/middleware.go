package httpapi

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"faultline/internal/fault"
)

// errorBoundary converts handler errors to wire envelopes. It is the
// only place in the service where a domain error turns into JSON; a
// panic is adopted as an unclassified internal error so it flows
// through the same path.
func errorBoundary(builder *fault.Builder, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				env := builder.Build(fault.Unclassified.Wrap(fmt.Errorf("panic: %v", rec)))
				c.AbortWithStatusJSON(env.Status, env)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		// Handlers report at most one error; keep the last one if a
		// middleware added more.
		err := c.Errors.Last().Err
		env := builder.Build(err)
		if env.Status >= 500 {
			log.Error("request failed",
				slog.String("method", c.Request.Method),
				slog.String("path", c.FullPath()),
				slog.String("error_type", env.ErrorType),
				slog.String("incident", env.Incident),
			)
		}
		c.JSON(env.Status, env)
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}
