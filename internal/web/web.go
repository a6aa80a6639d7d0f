// Package web holds the embedded page templates and static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"valetsite/internal/domain"
	"valetsite/internal/lead"
	"valetsite/internal/listing"
	"valetsite/internal/notify"
)

//go:embed templates static
var files embed.FS

// Site is the business identity shown in the header, footer and notices.
type Site struct {
	BrandName    string
	Domain       string
	ServiceArea  string
	PhoneDisplay string
	PhoneE164    string
	Email        string
}

// PhoneHref is a tel: link. html/template filters tel: unless it is typed as a URL.
func (s Site) PhoneHref() template.URL {
	return telURL(notify.Phone{Display: s.PhoneDisplay, E164: s.PhoneE164}.Href())
}

func telURL(href string) template.URL {
	if !strings.HasPrefix(href, "tel:+") || strings.ContainsAny(href[5:], " \"'<>") {
		return ""
	}
	return template.URL(href)
}

// Page is one entry of the static route table.
type Page struct {
	Path        string
	Name        string
	Title       string
	Description string
	Nav         bool
}

var Pages = []Page{
	{Path: "/", Name: "home", Title: "Home", Description: "Premium valet trash and amenity services for apartments, condos and multifamily communities.", Nav: true},
	{Path: "/services", Name: "services", Title: "Services", Description: "Doorstep trash collection and amenity services.", Nav: true},
	{Path: "/property-managers", Name: "property-managers", Title: "Property Managers", Description: "Amenity solutions for property managers.", Nav: true},
	{Path: "/residents", Name: "residents", Title: "Residents", Description: "How valet trash works for residents.", Nav: true},
	{Path: "/careers", Name: "careers", Title: "Careers", Description: "Open positions.", Nav: true},
	{Path: "/contact", Name: "contact", Title: "Contact", Description: "Get in touch.", Nav: true},
	{Path: "/terms", Name: "terms", Title: "Terms of Use"},
	{Path: "/privacy", Name: "privacy", Title: "Privacy Policy"},
	{Path: "/do-not-sell", Name: "do-not-sell", Title: "Do Not Sell My Personal Information"},
}

var NotFound = Page{Name: "not-found", Title: "Page not found"}

// Lookup maps a request path to its page. A trailing slash is ignored.
func Lookup(path string) (Page, bool) {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	for _, p := range Pages {
		if p.Path == path {
			return p, true
		}
	}
	return NotFound, false
}

// ListData is a list section as the template sees it.
type ListData[T any] struct {
	View listing.View[T]
	// Src is the partial URL the browser fetches while the section is still loading.
	Src       string
	ShowError bool
}

func (l ListData[T]) Loading() bool { return l.View.State == listing.Loading }

type ContactData struct {
	Fields  lead.Fields
	Token   string
	Notice  *notify.Notice
	Missing []string
}

type PageData struct {
	Site      Site
	Page      Page
	Nav       []Page
	RequestID string
	Services  *ListData[domain.ServiceListing]
	Careers   *ListData[domain.CareerOpportunity]
	Contact   *ContactData
}

type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
	site     Site
}

var funcs = template.FuncMap{
	"year": func() int { return time.Now().Year() },
	"tel":  telURL,
	"imgsrc": func(u string) string {
		if u == "" {
			return ""
		}
		return "/img?u=" + url.QueryEscape(u)
	},
	"has": func(xs []string, x string) bool {
		for _, s := range xs {
			if s == x {
				return true
			}
		}
		return false
	},
}

func NewRenderer(site Site) (*Renderer, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template), partials: base, site: site}
	for _, p := range append([]Page{NotFound}, Pages...) {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(files, "templates/pages/"+p.Name+".html"); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", p.Name, err)
		}
		r.pages[p.Name] = t
	}
	return r, nil
}

// Data starts the template data for page p.
func (r *Renderer) Data(p Page, reqID string) PageData {
	var nav []Page
	for _, pg := range Pages {
		if pg.Nav {
			nav = append(nav, pg)
		}
	}
	return PageData{Site: r.site, Page: p, Nav: nav, RequestID: reqID}
}

// Render writes a full page. Output is buffered so a template error never leaves half a page.
func (r *Renderer) Render(w io.Writer, data PageData) error {
	t, ok := r.pages[data.Page.Name]
	if !ok {
		return fmt.Errorf("no template for page %q", data.Page.Name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderPartial writes one named block from partials.html.
func (r *Renderer) RenderPartial(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
