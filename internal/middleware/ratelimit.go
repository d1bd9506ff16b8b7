package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// PerIPRateLimitMiddleware applies token-bucket rate limiting per client IP.
func PerIPRateLimitMiddleware(requestsPerSecond float64, burstSize int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			mu.Lock()
			limiter, exists := limiters[clientIP]
			if !exists {
				limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize)
				limiters[clientIP] = limiter
			}
			mu.Unlock()

			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error": "Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP, honoring common proxy headers.
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

// APIRateLimitMiddleware is the limit applied to the chat endpoint.
func APIRateLimitMiddleware() func(http.Handler) http.Handler {
	return PerIPRateLimitMiddleware(10, 20)
}

// UploadRateLimitMiddleware is stricter: document processing is the most
// expensive request the service handles.
func UploadRateLimitMiddleware() func(http.Handler) http.Handler {
	return PerIPRateLimitMiddleware(2, 5)
}
