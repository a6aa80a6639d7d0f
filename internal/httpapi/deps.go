package httpapi

import (
	"context"
	"database/sql"
	"net/netip"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"valetsite/internal/content"
	"valetsite/internal/events"
	"valetsite/internal/lead"
	"valetsite/internal/notify"
	"valetsite/internal/store"
	"valetsite/internal/web"
)

// ImageSource serves proxied listing images.
type ImageSource interface {
	Get(ctx context.Context, raw string) (store.Image, error)
}

type Collections struct {
	Services string
	Careers  string
	Leads    string
}

type Deps struct {
	Log      *zap.Logger
	Store    content.Store
	Renderer *web.Renderer
	Images   ImageSource
	Hub      *events.Hub

	Collections Collections

	// Lists
	RenderBudget      time.Duration
	SurfaceListErrors bool

	// Leads
	Phone    notify.Phone
	AutoHide time.Duration
	Guard    *lead.Guard
	Limiter  *lead.ClientLimiter
	Clock    lead.Clock

	// TrustedProxies may set X-Forwarded-For; see clientIP.
	TrustedProxies []netip.Prefix

	// Admin
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	DB          *sql.DB // local sqlite; nil disables checkpoint
	AdminToken  string
	Shutdown    func(ctx context.Context) error
	Ready       func(ctx context.Context) error
}
