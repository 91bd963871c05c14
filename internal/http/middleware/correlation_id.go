package middleware

import (
	"net/http"

	"github.com/khanhtranq/inventory-service/pkg/correlationid"
)

// CorrelationID propagates the inbound correlation ID header, minting a
// new one when absent, and echoes it on the response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(correlationid.HeaderName)
			if id == "" {
				id = correlationid.New()
			}

			w.Header().Set(correlationid.HeaderName, id)

			ctx := correlationid.NewContext(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
