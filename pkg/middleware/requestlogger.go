package middleware

import (
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/camilomoreno07/gorkis-api/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, the Lambda aws_request_id (when running under Lambda) and
// trace/span ids. Handlers read it back with logger.FromContext.
//
// Mount it after RequestLogging and Tracing so those values are present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
				ctx = logger.WithAWSRequestID(ctx, lc.AwsRequestID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
