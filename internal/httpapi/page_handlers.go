package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"valetsite/internal/content"
	"valetsite/internal/domain"
	"valetsite/internal/lead"
	"valetsite/internal/listing"
	"valetsite/internal/web"
)

type PageHandler struct {
	Log               *zap.Logger
	Store             content.Store
	Renderer          *web.Renderer
	Guard             *lead.Guard
	Collections       Collections
	RenderBudget      time.Duration
	SurfaceListErrors bool
	Pending           *pendingSections
}

// sectionWait bounds a /sections partial request.
const sectionWait = 30 * time.Second

func (h PageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	p, ok := web.Lookup(r.URL.Path)
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}

	data := h.Renderer.Data(p, RequestIDFrom(r.Context()))
	switch p.Name {
	case "services":
		data.Services = loadList(r.Context(), h, "services", h.Collections.Services, domain.ServiceFromRecord)
	case "careers":
		data.Careers = loadList(r.Context(), h, "careers", h.Collections.Careers, domain.CareerFromRecord)
	case "contact":
		data.Contact = &web.ContactData{Token: h.Guard.NewToken()}
	}
	h.render(w, r, status, data)
}

// Section renders the cards partial for a list that was still loading at page render time.
// The t query parameter names the page's own fetch; without a live one the list is fetched again.
func (h PageHandler) Section(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/sections/")
	if name != "services" && name != "careers" {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sectionWait)
	defer cancel()

	var data any
	if p, ok := h.Pending.take(r.URL.Query().Get("t"), name); ok {
		data = p.wait(ctx)
		p.release()
	} else {
		fresh := h
		fresh.RenderBudget = 0
		if name == "services" {
			data = loadList(ctx, fresh, name, h.Collections.Services, domain.ServiceFromRecord)
		} else {
			data = loadList(ctx, fresh, name, h.Collections.Careers, domain.CareerFromRecord)
		}
	}

	tmpl := name + "_section"
	var buf bytes.Buffer
	if err := h.Renderer.RenderPartial(&buf, tmpl, data); err != nil {
		h.Log.Error("render section failed", zap.String("section", tmpl), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (h PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data web.PageData) {
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, data); err != nil {
		h.Log.Error("render page failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("page", data.Page.Name),
			zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// loadList builds a fresh section for this request and waits up to the render budget for it.
// A fetch still in flight is parked under a token and the browser gets a partial URL
// carrying it, so the partial reuses the fetch. A zero budget waits for the fetch.
func loadList[T any](ctx context.Context, h PageHandler, name, collection string,
	decode func(content.Record) T) *web.ListData[T] {
	s := listing.New(h.Store, collection, decode, h.Log)
	if h.RenderBudget <= 0 || h.Pending == nil {
		return finishList(ctx, h, s, collection)
	}

	// the fetch may outlive this request; the partial request picks it up
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.Pending.ttl)
	s.Mount(fetchCtx)
	v := s.Await(ctx, h.RenderBudget)
	if v.State != listing.Loading {
		cancel()
		return &web.ListData[T]{View: v, ShowError: h.SurfaceListErrors && v.Failed}
	}

	tok := h.Pending.put(name,
		func(wctx context.Context) any { return finishList(wctx, h, s, collection) },
		func() {
			s.Unmount()
			cancel()
		})
	return &web.ListData[T]{View: v, Src: "/sections/" + name + "?t=" + url.QueryEscape(tok)}
}

// finishList waits for s. A fetch that is still loading when ctx ends shows as failed.
func finishList[T any](ctx context.Context, h PageHandler, s *listing.Section[T], collection string) *web.ListData[T] {
	v := s.Await(ctx, 0)
	if v.State == listing.Loading {
		s.Unmount()
		h.Log.Warn("list fetch outlived its wait", zap.String("collection", collection))
		v = listing.View[T]{State: listing.Empty, Failed: true}
		return &web.ListData[T]{View: v, ShowError: h.SurfaceListErrors}
	}
	return &web.ListData[T]{View: v, ShowError: h.SurfaceListErrors && v.Failed}
}
