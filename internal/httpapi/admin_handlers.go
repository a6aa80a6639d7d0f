package httpapi

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"net/http"
	"net/netip"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"valetsite/internal/config"
)

// AdminGuard limits admin routes to loopback callers holding the admin token.
type AdminGuard struct {
	Token   string
	Trusted []netip.Prefix
}

func (g AdminGuard) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isLocal(r, g.Trusted) {
			WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
		got := r.Header.Get("X-Admin-Token")
		if g.Token == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(g.Token)) != 1 {
			WriteError(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		next(w, r)
	}
}

type AdminHandler struct {
	Log      *zap.Logger
	CfgVal   *atomic.Value // stores config.Config
	CfgPath  string
	DB       *sql.DB
	Shutdown func(ctx context.Context) error
}

// Config returns the running config with the admin token redacted.
func (h AdminHandler) Config(w http.ResponseWriter, r *http.Request) {
	cur, ok := h.CfgVal.Load().(config.Config)
	if !ok {
		WriteError(w, r, http.StatusServiceUnavailable, "no_config", "config not loaded")
		return
	}
	if cur.App.AdminToken != "" {
		cur.App.AdminToken = "redacted"
	}
	abs, _ := filepath.Abs(h.CfgPath)
	WriteJSON(w, http.StatusOK, map[string]any{"path": abs, "config": cur})
}

func (h AdminHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cur, ok := h.CfgVal.Load().(config.Config)
	if !ok {
		WriteError(w, r, http.StatusServiceUnavailable, "no_config", "config not loaded")
		return
	}
	_, vr := config.NormalizeAndValidate(cur)
	status := http.StatusOK
	if !vr.OK() {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, vr)
}

func (h AdminHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		WriteError(w, r, http.StatusNotFound, "no_db", "no local database")
		return
	}
	if _, err := h.DB.ExecContext(r.Context(), `PRAGMA wal_checkpoint(FULL);`); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "checkpoint_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ShutdownNow responds, then stops the server in the background.
func (h AdminHandler) ShutdownNow(w http.ResponseWriter, r *http.Request) {
	if h.Shutdown == nil {
		WriteError(w, r, http.StatusNotImplemented, "no_shutdown", "shutdown not wired")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("shutting down\n"))

	h.Log.Info("shutdown requested", zap.String("request_id", RequestIDFrom(r.Context())))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Shutdown(ctx); err != nil {
			h.Log.Error("shutdown failed", zap.Error(err))
		}
	}()
}
