package server

import (
	"context"
	"net/http"
	"time"

	"shopfront/src/helpers"

	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type contextKey int

const requestIDKey contextKey = iota

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestLogger(r *http.Request, logger *zap.SugaredLogger) *zap.SugaredLogger {
	if id := RequestID(r.Context()); id != "" {
		return logger.With("request_id", id)
	}
	return logger
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = helpers.GenerateUUID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		requestLogger(r, s.logger).Infow("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				requestLogger(r, s.logger).Errorw("Handler panicked", "panic", p, "path", r.URL.Path)
				writeJSON(w, errInternal.status, errInternal.body)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects requests without valid basic auth credentials when
// authentication is enabled.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.AuthEnabled {
			next(w, r)
			return
		}

		user, password, ok := r.BasicAuth()
		if !ok || !s.services.UserService.Authenticate(user, password) {
			requestLogger(r, s.logger).Infow("Rejected unauthenticated write", "user", user, "path", r.URL.Path)
			w.Header().Set("WWW-Authenticate", `Basic realm="shopfront"`)
			s.writeError(w, r, errNotAuthenticated)
			return
		}
		next(w, r)
	}
}
