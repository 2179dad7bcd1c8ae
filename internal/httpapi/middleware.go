package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// apiVersion is advertised on every response so clients can detect contract
// changes without parsing bodies.
const apiVersion = "2"

func withMiddleware(next http.Handler) http.Handler {
	return requestLogging(requestID(versionHeader(next)))
}

func versionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", apiVersion)
		next.ServeHTTP(w, r)
	})
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r)
	})
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("req_id=%s method=%s path=%s dur=%s",
			w.Header().Get("X-Request-Id"), r.Method, r.URL.Path, time.Since(start))
	})
}
