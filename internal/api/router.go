package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
	"github.com/Good-for-good/goodforgood-sub000/internal/metrics"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds the application dependencies for handler registration.
type Deps struct {
	Config   *config.Config
	Pool     db.TxBeginner
	Pinger   Pinger
	Gateway  db.Gateway // audited
	Sessions *auth.Manager
	Audit    AuditReader
	Limiter  *LoginLimiter
}

// NewRouter builds the HTTP handler: the middleware chain around a ServeMux
// carrying the API operations, /health and /metrics.
func NewRouter(d Deps) (http.Handler, huma.API) {
	mux := http.NewServeMux()
	humaAPI := humago.New(mux, huma.DefaultConfig("Good for Good API", "1.0.0"))

	RegisterRoutes(humaAPI, d)
	mux.Handle("GET /metrics", metrics.Handler())

	limiter := d.Limiter
	if limiter == nil {
		limiter = NewLoginLimiter(d.Config.RateLimit)
	}

	clientIPs, err := NewClientIPs(d.Config.Server.TrustedProxies)
	if err != nil {
		slog.Error("ignoring trusted proxies", "error", err)
		clientIPs = &ClientIPs{}
	}

	h := Chain(Routed(mux),
		clientIPs.Middleware,
		RequestID,
		LoggingMiddleware,
		CORS(d.Config.CORS),
		limiter.Handler,
		AuditScope,
		NewSessions(d.Sessions, d.Config.Session).Handler,
	)
	return h, humaAPI
}

// HealthOutput is the response for the health check.
type HealthOutput struct {
	Body struct {
		Status   string `json:"status" enum:"ok,degraded"`
		Database string `json:"database" enum:"ok,unreachable"`
	}
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(humaAPI huma.API, d Deps) {
	huma.Register(humaAPI, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
		out := &HealthOutput{}
		out.Body.Status, out.Body.Database = "ok", "ok"
		if d.Pinger != nil {
			if err := d.Pinger.Ping(ctx); err != nil {
				slog.WarnContext(ctx, "health check: database unreachable", "error", err)
				out.Body.Status, out.Body.Database = "degraded", "unreachable"
			}
		}
		return out, nil
	})

	NewAuthHandler(d.Sessions, d.Config.Session).RegisterRoutes(humaAPI)
	NewMemberHandler(d.Gateway, d.Sessions).RegisterRoutes(humaAPI)
	NewRecordHandler(d.Gateway).RegisterRoutes(humaAPI)
	NewMeetingHandler(d.Pool, d.Gateway).RegisterRoutes(humaAPI)
	NewLinkHandler(d.Gateway).RegisterRoutes(humaAPI)
	NewAuditHandler(d.Audit).RegisterRoutes(humaAPI)

	slog.Debug("routes registered")
}
