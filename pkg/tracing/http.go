package tracing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// GinMiddleware traces every request except those to the given paths.
func GinMiddleware(serviceName string, skipPaths ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skipped[p] = struct{}{}
	}

	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		_, skip := skipped[r.URL.Path]
		return !skip
	}))
}
