package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"valetsite/internal/content"
	"valetsite/internal/events"
	"valetsite/internal/lead"
	"valetsite/internal/notify"
	"valetsite/internal/web"
)

const maxLeadBody = 64 << 10

type LeadHandler struct {
	Log        *zap.Logger
	Store      content.Store
	Renderer   *web.Renderer
	Hub        *events.Hub
	Guard      *lead.Guard
	Limiter    *lead.ClientLimiter
	Clock      lead.Clock
	Collection string
	Phone      notify.Phone
	AutoHide   time.Duration
	Trusted    []netip.Prefix
}

type leadRequest struct {
	lead.Fields
	FormToken string `json:"form_token"`
	PageURL   string `json:"pageUrl"`
}

type leadResponse struct {
	OK     bool          `json:"ok"`
	Notice notify.Notice `json:"notice"`
}

// submit runs one lead through the rate limiter, the double-submit guard and a fresh Form.
func (h LeadHandler) submit(ctx context.Context, client, token string, fields lead.Fields, page string) (lead.Outcome, error) {
	if h.Limiter != nil && !h.Limiter.Allow(client) {
		h.Log.Warn("lead rate limited", zap.String("client", client))
		return lead.Outcome{Phase: lead.Failed, Notice: notify.Failed(h.Phone)}, lead.ErrRateLimited
	}

	run := func() (lead.Outcome, error) {
		opts := []lead.Option{lead.WithLogger(h.Log)}
		if h.Clock != nil {
			opts = append(opts, lead.WithClock(h.Clock))
		}
		f := lead.NewForm(h.Store, lead.Config{
			Collection: h.Collection,
			Phone:      h.Phone,
			AutoHide:   h.AutoHide,
		}, opts...)
		defer f.Close()
		f.Fill(fields)
		return f.Submit(ctx, page)
	}

	var (
		out      lead.Outcome
		replayed bool
		err      error
	)
	if h.Guard != nil {
		out, replayed, err = h.Guard.Do(token, run)
	} else {
		out, err = run()
	}
	if err != nil || replayed {
		return out, err
	}

	if h.Hub != nil {
		reqID := RequestIDFrom(ctx)
		if out.Filtered {
			h.Hub.Publish(events.New(reqID, events.TypeLeadFiltered, events.LeadData{Collection: h.Collection}))
		} else {
			h.Hub.Publish(events.New(reqID, events.TypeLeadCreated, events.LeadData{ID: out.RecordID, Collection: h.Collection}))
		}
	}
	return out, nil
}

func leadStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, lead.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, lead.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, lead.ErrInFlight):
		return http.StatusConflict, "in_flight"
	default:
		return http.StatusBadGateway, "store_unavailable"
	}
}

func missingFields(err error) []string {
	var ve *lead.ValidationError
	if errors.As(err, &ve) {
		return ve.Missing
	}
	return nil
}

// PostForm handles the HTML contact form.
func (h LeadHandler) PostForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLeadBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	fields := lead.Fields{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Subject: r.PostFormValue("subject"),
		Message: r.PostFormValue("message"),
		Company: r.PostFormValue("company"),
	}
	token := r.PostFormValue("form_token")

	out, err := h.submit(r.Context(), clientIP(r, h.Trusted), token, fields, pageURL(r, ""))
	status, _ := leadStatus(err)

	p, _ := web.Lookup("/contact")
	data := h.Renderer.Data(p, RequestIDFrom(r.Context()))
	contact := &web.ContactData{Token: h.Guard.NewToken()}
	switch {
	case err == nil:
		n := out.Notice
		contact.Notice = &n
	case errors.Is(err, lead.ErrValidation):
		contact.Fields = fields
		contact.Missing = missingFields(err)
	default:
		// the entered values come back so nothing typed is lost
		n := out.Notice
		contact.Fields = fields
		contact.Notice = &n
	}
	contact.Fields.Company = ""
	data.Contact = contact

	var buf bytes.Buffer
	if rerr := h.Renderer.Render(&buf, data); rerr != nil {
		h.Log.Error("render contact failed", zap.Error(rerr))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// PostJSON handles POST /api/leads.
func (h LeadHandler) PostJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLeadBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req leadRequest
	if err := dec.Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if dec.More() {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: trailing data")
		return
	}

	out, err := h.submit(r.Context(), clientIP(r, h.Trusted), req.FormToken, req.Fields, pageURL(r, req.PageURL))
	if err == nil {
		WriteJSON(w, http.StatusCreated, leadResponse{OK: true, Notice: out.Notice})
		return
	}

	status, code := leadStatus(err)
	e := newAPIError(r, code, err.Error())
	if status == http.StatusBadGateway {
		e.Error.Message = "lead submission failed"
	}
	if out.Notice.Kind != "" {
		n := out.Notice
		e.Notice = &n
	}
	e.Missing = missingFields(err)
	WriteJSON(w, status, e)
}
