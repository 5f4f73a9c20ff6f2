package middleware

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/toastmixer/internal/metrics"
)

// MetricsInterceptor counts RPC calls by result code and observes latency.
func MetricsInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			metrics.RPCRequestsTotal.WithLabelValues(procedure, code).Inc()
			metrics.RPCRequestDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())

			return resp, err
		}
	}
}
