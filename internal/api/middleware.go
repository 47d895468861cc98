package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/logging"
	"github.com/Good-for-good/goodforgood-sub000/internal/metrics"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h. The first middleware is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID propagates or assigns a request id and attaches it, with the
// client IP, to every log record written for the request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := logging.AppendCtx(r.Context(),
			slog.String("request_id", id),
			slog.String("client_ip", clientIP(r)),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs request details and records request metrics.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		route := "unmatched"
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, &route))
		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapper.statusCode)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		slog.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration_ms", duration.Milliseconds(),
		)
	})
}

type routeKey struct{}

// Routed wraps the mux and reports the matched pattern back to
// LoggingMiddleware, keeping the route metric label bounded.
func Routed(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		// ServeMux sets Pattern on the request it was handed.
		if route, ok := r.Context().Value(routeKey{}).(*string); ok && r.Pattern != "" {
			*route = r.Pattern
		}
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code.
type responseWriterWrapper struct {
	http.ResponseWriter

	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// AuditScope opens one audit operation per request so every mutation a
// handler makes shares a group id.
func AuditScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, end := audit.Begin(r.Context())
		defer end()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORS allows the browser console to call the API with credentials.
func CORS(cfg config.CORSConfig) Middleware {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// Sessions resolves the session cookie to an actor before routing. Requests
// without a valid session continue anonymously; the guard on each operation
// decides whether that is enough.
type Sessions struct {
	manager *auth.Manager
	cookies cookieJar
}

// NewSessions creates the session middleware.
func NewSessions(manager *auth.Manager, cfg config.SessionConfig) *Sessions {
	return &Sessions{manager: manager, cookies: cookieJar{cfg: cfg}}
}

// Handler returns the middleware.
func (s *Sessions) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.cookies.cfg.CookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.WithToken(r.Context(), c.Value)
		session, err := s.manager.Validate(ctx, c.Value)
		switch {
		case errors.Is(err, auth.ErrSessionExpired), errors.Is(err, auth.ErrSessionNotFound):
			gone := s.cookies.clear()
			http.SetCookie(w, &gone)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		case err != nil:
			slog.ErrorContext(ctx, "session validation failed", "error", err)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		member, err := s.manager.Member(ctx, session)
		if err != nil {
			if !errors.Is(err, auth.ErrSessionNotFound) {
				slog.ErrorContext(ctx, "session member lookup failed", "error", err)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ctx = auth.WithActor(ctx, &auth.Actor{
			MemberID:         member.ID,
			Name:             member.Name,
			Email:            member.Email,
			Role:             auth.RoleFromPtr(member.TrusteeRole),
			SessionExpiresAt: session.ExpiresAt,
		})
		ctx = logging.AppendCtx(ctx, slog.String("member_id", member.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cookieJar builds the session cookie from config.
type cookieJar struct {
	cfg config.SessionConfig
}

func (j cookieJar) issue(token string) http.Cookie {
	return http.Cookie{
		Name:     j.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(j.cfg.Duration.Seconds()),
		HttpOnly: true,
		Secure:   j.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (j cookieJar) clear() http.Cookie {
	return http.Cookie{
		Name:     j.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // Instructs browser to delete cookie
		HttpOnly: true,
		Secure:   j.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
