package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ShopDomainKey is the context key for the shop domain being checked
	ShopDomainKey contextKey = "shop_domain"
	// CheckIDKey is the context key for the availability check ID
	CheckIDKey contextKey = "check_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enrichedLogger := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithShopDomain adds the shop domain to context and returns enriched logger
func WithShopDomain(ctx context.Context, logger *zap.Logger, shopDomain string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ShopDomainKey, shopDomain)
	enrichedLogger := logger.With(zap.String("shop_domain", shopDomain))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithCheckID adds the availability check ID to context and returns enriched logger
func WithCheckID(ctx context.Context, logger *zap.Logger, checkID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, CheckIDKey, checkID)
	enrichedLogger := logger.With(zap.String("check_id", checkID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetShopDomain retrieves the shop domain from context
func GetShopDomain(ctx context.Context) string {
	if shopDomain, ok := ctx.Value(ShopDomainKey).(string); ok {
		return shopDomain
	}
	return ""
}

// GetCheckID retrieves the availability check ID from context
func GetCheckID(ctx context.Context) string {
	if checkID, ok := ctx.Value(CheckIDKey).(string); ok {
		return checkID
	}
	return ""
}

// GetTraceID extracts the trace ID from the context's span.
// Returns an empty string if no active span exists or the trace is invalid.
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// GetSpanID extracts the span ID from the context's span.
// Returns an empty string if no active span exists or the span is invalid.
func GetSpanID(ctx context.Context) string {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.SpanID().String()
}

// WithTraceContext adds trace_id and span_id to the logger from the context's span.
// If no valid span exists, returns the original logger unchanged.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		return logger
	}
	return logger.With(
		zap.String("trace_id", traceID),
		zap.String("span_id", GetSpanID(ctx)),
	)
}

// ContextLogger logs with automatic trace correlation. Every entry carries
// trace_id, span_id, request_id, shop_domain, and check_id when the context
// has them, so a single check can be followed across logs and spans.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger from the given context.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: FromContext(ctx),
	}
}

// enrichedLogger returns a logger enriched with trace and context fields.
func (cl *ContextLogger) enrichedLogger() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}

	l = WithTraceContext(cl.ctx, l)

	if requestID := GetRequestID(cl.ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	if shopDomain := GetShopDomain(cl.ctx); shopDomain != "" {
		l = l.With(zap.String("shop_domain", shopDomain))
	}
	if checkID := GetCheckID(cl.ctx); checkID != "" {
		l = l.With(zap.String("check_id", checkID))
	}

	return l
}

// With creates a child ContextLogger with additional fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{
		ctx:    cl.ctx,
		logger: cl.logger.With(fields...),
	}
}

// Debug logs a debug level message with trace context.
func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Debug(msg, fields...)
}

// Info logs an info level message with trace context.
func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Info(msg, fields...)
}

// Warn logs a warning level message with trace context.
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Warn(msg, fields...)
}

// Error logs an error level message with trace context.
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Error(msg, fields...)
}
