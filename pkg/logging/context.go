package logging

import (
	"context"
)

type contextKey string

const (
	TraceIDKey      contextKey = "trace_id"
	ServiceNameKey  contextKey = "service_name"
	RoutingKeyKey   contextKey = "routing_key"
	ConnectionIDKey contextKey = "connection_id"
	AnnotationIDKey contextKey = "annotation_id"
)

// orderedKeys fixes the order in which context fields are emitted.
var orderedKeys = []contextKey{
	TraceIDKey,
	ServiceNameKey,
	RoutingKeyKey,
	ConnectionIDKey,
	AnnotationIDKey,
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func WithRoutingKey(ctx context.Context, routingKey string) context.Context {
	return context.WithValue(ctx, RoutingKeyKey, routingKey)
}

func WithConnectionID(ctx context.Context, connectionID string) context.Context {
	return context.WithValue(ctx, ConnectionIDKey, connectionID)
}

func WithAnnotationID(ctx context.Context, annotationID string) context.Context {
	return context.WithValue(ctx, AnnotationIDKey, annotationID)
}

func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

func GetServiceName(ctx context.Context) string {
	return getString(ctx, ServiceNameKey)
}

func GetRoutingKey(ctx context.Context) string {
	return getString(ctx, RoutingKeyKey)
}

func GetConnectionID(ctx context.Context) string {
	return getString(ctx, ConnectionIDKey)
}

func GetAnnotationID(ctx context.Context) string {
	return getString(ctx, AnnotationIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetLogFields returns the key/value pairs stored on ctx, ready to be
// passed to a sugared logger.
func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, len(orderedKeys)*2)
	for _, key := range orderedKeys {
		if v := getString(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}
