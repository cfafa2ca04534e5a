package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/propagation"

	"github.com/xiebiao/library/pkg/tracing"
)

// RequestIDHeader 请求ID头，调用方传入时沿用
const RequestIDHeader = "X-Request-ID"

// RequestLogger 请求日志，同时为每个请求分配request_id并开入口Span
// 请求级logger挂在ctx上，下游用zerolog.Ctx(ctx)取用
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		ctx, span := tracing.Inbound(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header), c.Request.Method+" "+c.FullPath())
		defer span.End()

		l := log.With().Str("request_id", requestID).Str("trace_id", tracing.TraceID(ctx)).Logger()
		c.Request = c.Request.WithContext(l.WithContext(ctx))

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		default:
			event = l.Info()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP请求")
	}
}

// Recovery panic转为500并记录日志
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("请求处理panic")
		c.AbortWithStatusJSON(500, gin.H{"code": 50000, "message": "系统内部错误"})
	})
}
