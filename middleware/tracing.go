package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware instruments every route with OpenTelemetry spans.
func TracingMiddleware() gin.HandlerFunc {
	return otelgin.Middleware("multitenant-rag-platform")
}

// EnrichTrace annotates the active span with the authenticated scope
// and request id.
func EnrichTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())

		if scope := GetTenantScope(c); scope != "" {
			span.SetAttributes(attribute.String("tenant.scope", scope))
		}
		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		c.Next()

		span.SetAttributes(attribute.Int("http.response.status_code", c.Writer.Status()))
	}
}
