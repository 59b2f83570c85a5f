package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"expensetracker/auth"
	"expensetracker/models"
)

// Authorizer resolves a bearer token to the current user.
type Authorizer interface {
	Authorize(ctx context.Context, rawToken string) (*models.AppUser, error)
}

// AuthMiddleware rejects requests without a valid session and stores the
// caller in the request context.
func AuthMiddleware(guard Authorizer, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		user, err := guard.Authorize(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(auth.WithCaller(r.Context(), user)))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)
		log.Printf("request method=%s path=%s status=%d duration_ms=%d", r.Method, r.URL.Path, writer.status, time.Since(start).Milliseconds())
	})
}
