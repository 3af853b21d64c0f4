package httppresentation

import (
	"strconv"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerRequestID = "X-Request-ID"
	headerTenantID  = "X-Tenant-ID"
	tracerName      = "minishop.http"
)

// route returns the low-cardinality template gin matched, e.g. /api/cart/items/:itemId.
func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unknown"
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func withTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		template := route(c)
		spanName := r.Method + " " + template
		if template == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}

		ctx, span := otel.Tracer(tracerName).Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		c.Request = r.WithContext(ctx)
		c.Next()
		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

// withRequestLogger injects a request-scoped logger (dynamic fields only)
// and echoes X-Request-ID, generating one when absent.
func withRequestLogger(base observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sc := trace.SpanContextFromContext(ctx)

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		fields := []observability.Field{observability.F("request_id", rid)}
		if tid := c.GetHeader(headerTenantID); tid != "" {
			fields = append(fields, observability.F("tenant_id", tid))
		}
		if sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		ctx, _ = logctx.Derive(ctx, base, fields...)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
// DO NOT new metrics inside the middleware.
func withHTTPMetrics(requests observability.Counter, duration observability.Histogram) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		labels := []observability.Label{
			observability.L("method", c.Request.Method),
			observability.L("route", route(c)),
			observability.L("status", strconv.Itoa(c.Writer.Status())),
		}
		requests.Add(1, labels...)
		duration.Observe(time.Since(start).Seconds(), labels...)
	}
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by withRequestLogger.
func withAccessLog(base observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logctx.FromOr(c.Request.Context(), base).Info("http_access",
			observability.F("method", c.Request.Method),
			observability.F("route", route(c)),
			observability.F("path", c.Request.URL.Path),
			observability.F("status", c.Writer.Status()),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	}
}

// withRecovery turns a handler panic into a 500 and an error log line.
func withRecovery(base observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logctx.FromOr(c.Request.Context(), base).Error("http_panic",
					observability.F("route", route(c)),
					observability.F("panic", r),
				)
				c.AbortWithStatusJSON(500, envelope{Success: false, Message: "internal error"})
			}
		}()
		c.Next()
	}
}
