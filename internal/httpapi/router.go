package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"valetsite/internal/web"
)

func NewMux(d Deps) *http.ServeMux {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	mux := http.NewServeMux()

	// Pages
	ph := PageHandler{
		Log:               d.Log,
		Store:             d.Store,
		Renderer:          d.Renderer,
		Guard:             d.Guard,
		Collections:       d.Collections,
		RenderBudget:      d.RenderBudget,
		SurfaceListErrors: d.SurfaceListErrors,
		Pending:           newPendingSections(pendingTTL),
	}
	lh := LeadHandler{
		Log:        d.Log,
		Store:      d.Store,
		Renderer:   d.Renderer,
		Hub:        d.Hub,
		Guard:      d.Guard,
		Limiter:    d.Limiter,
		Clock:      d.Clock,
		Collection: d.Collections.Leads,
		Phone:      d.Phone,
		AutoHide:   d.AutoHide,
		Trusted:    d.TrustedProxies,
	}
	mux.HandleFunc("/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Serve,
	}))
	mux.HandleFunc("/contact", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ph.Serve,
		http.MethodPost: lh.PostForm,
	}))
	mux.HandleFunc("/sections/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Section,
	}))
	mux.Handle("/static/", web.Static())

	// JSON API
	svc := ListHandler{Log: d.Log, Store: d.Store, Collection: d.Collections.Services}
	car := ListHandler{Log: d.Log, Store: d.Store, Collection: d.Collections.Careers}
	mux.HandleFunc("/api/services", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: svc.List,
	}))
	mux.HandleFunc("/api/careers", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: car.List,
	}))
	mux.HandleFunc("/api/leads", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: lh.PostJSON,
	}))

	// Images
	if d.Images != nil {
		ih := ImagesHandler{Log: d.Log, Images: d.Images}
		mux.HandleFunc("/img", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ih.Get,
		}))
	}

	hh := HealthHandler{Ready: d.Ready}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Admin: loopback + token
	guard := AdminGuard{Token: d.AdminToken, Trusted: d.TrustedProxies}
	ah := AdminHandler{Log: d.Log, CfgVal: d.CfgVal, CfgPath: d.UserCfgPath, DB: d.DB, Shutdown: d.Shutdown}
	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub}
		mux.HandleFunc("/admin/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: guard.Wrap(eh.ServeSSE),
		}))
	}
	if d.CfgVal != nil {
		mux.HandleFunc("/admin/config", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: guard.Wrap(ah.Config),
		}))
		mux.HandleFunc("/admin/config/validate", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: guard.Wrap(ah.Validate),
		}))
	}
	mux.HandleFunc("/admin/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: guard.Wrap(ah.Checkpoint),
	}))
	mux.HandleFunc("/admin/shutdown", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: guard.Wrap(ah.ShutdownNow),
	}))

	return mux
}

// Handler wraps the mux in the standard middleware chain.
func Handler(d Deps, origins []string) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return Chain(NewMux(d),
		RequestID,
		Recover(d.Log),
		AccessLog(d.Log),
		Cors(origins),
	)
}
