package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"valetsite/internal/config"
	"valetsite/internal/events"
	"valetsite/internal/httpapi"
	"valetsite/internal/lead"
	"valetsite/internal/notify"
	"valetsite/internal/scheduler"
	"valetsite/internal/store"
	"valetsite/internal/web"
)

var seedOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the website",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("host", "", "listen host")
	f.Int("port", 0, "listen port")
	f.Bool("surface-list-errors", false, "show an explicit message when a list fails to load")
	f.BoolVar(&seedOnStart, "seed", false, "write the demo services and careers into empty collections first")

	_ = v.BindPFlag("app.host", f.Lookup("host"))
	_ = v.BindPFlag("app.port", f.Lookup("port"))
	_ = v.BindPFlag("site.surface_list_errors", f.Lookup("surface-list-errors"))
}

const leadSweepEvery = time.Minute

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openLocalDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := openContentStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	if seedOnStart {
		added, err := store.Seed(ctx, st, cfg.Collections.Services, cfg.Collections.Careers, store.DefaultSeed())
		if err != nil {
			return err
		}
		logger.Info("seeded", zap.Int("added", added))
	}

	adminToken, err := ensureAdminToken(cfg)
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer(siteFromConfig(cfg))
	if err != nil {
		return err
	}

	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	hub := events.NewHub()
	images := store.NewImageCache(db.Pool, cfg.Images.Hosts)
	guard := lead.NewGuard(cfg.Lead.DedupeWindow)
	limiter := lead.NewClientLimiter(cfg.Lead.RatePerMinute, cfg.Lead.Burst)

	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	d := httpapi.Deps{
		Log:      logger,
		Store:    st,
		Renderer: renderer,
		Images:   images,
		Hub:      hub,
		Collections: httpapi.Collections{
			Services: cfg.Collections.Services,
			Careers:  cfg.Collections.Careers,
			Leads:    cfg.Collections.Leads,
		},
		RenderBudget:      cfg.Site.RenderBudget,
		SurfaceListErrors: cfg.Site.SurfaceListErrors,
		Phone:             notify.Phone{Display: cfg.Site.PhoneDisplay, E164: cfg.Site.PhoneE164},
		AutoHide:          cfg.Site.SuccessAutoHide,
		Guard:             guard,
		Limiter:           limiter,
		TrustedProxies:    cfg.TrustedProxies(),
		CfgVal:            &cfgVal,
		UserCfgPath:       cfgPath,
		DB:                db.Pool,
		AdminToken:        adminToken,
		Shutdown:          srv.Shutdown,
		Ready:             db.Pool.PingContext,
	}
	srv.Handler = httpapi.Handler(d, siteOrigins(cfg))

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}
	logger.Info("site listening",
		zap.String("addr", "http://"+ln.Addr().String()),
		zap.String("store", cfg.Store.Backend),
		zap.String("db", cfg.DBPath()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		scheduler.Every(gctx, logger, cfg.Images.SweepEvery, "images.sweep", func(ctx context.Context) error {
			n, err := images.CleanupOldImages(ctx, cfg.Images.MaxAge)
			if n > 0 {
				hub.Publish(events.New("", events.TypeImagesSwept, events.SweepData{Deleted: n}))
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		scheduler.Every(gctx, logger, leadSweepEvery, "lead.sweep", func(context.Context) error {
			tokens := guard.Sweep()
			clients := limiter.Sweep(10 * time.Minute)
			logger.Debug("lead state swept", zap.Int("tokens", tokens), zap.Int("clients", clients))
			return nil
		})
		return nil
	})

	err = g.Wait()
	logger.Info("site stopped")
	return err
}

func siteFromConfig(cfg config.Config) web.Site {
	return web.Site{
		BrandName:    cfg.Site.BrandName,
		Domain:       cfg.Site.Domain,
		ServiceArea:  cfg.Site.ServiceArea,
		PhoneDisplay: cfg.Site.PhoneDisplay,
		PhoneE164:    cfg.Site.PhoneE164,
		Email:        cfg.Site.Email,
	}
}

func siteOrigins(cfg config.Config) []string {
	if cfg.Site.Domain == "" {
		return nil
	}
	return []string{"https://" + cfg.Site.Domain, "https://www." + cfg.Site.Domain}
}
