package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/request"
)

const maxRequestIDLength = 64

// RequestID propagates the caller's X-Request-ID or assigns a new one, echoing it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(request.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		r.Header.Set(request.RequestIDHeader, id)
		w.Header().Set(request.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(request.WithRequestID(r.Context(), id)))
	})
}
