package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.ToLower(strings.TrimSpace(x))
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Images.Hosts = trimList(out.Images.Hosts)
	out.Store.Backend = strings.ToLower(strings.TrimSpace(out.Store.Backend))
	out.Store.BaseURL = strings.TrimRight(strings.TrimSpace(out.Store.BaseURL), "/")
	out.Site.PhoneDisplay = strings.TrimSpace(out.Site.PhoneDisplay)
	out.Site.PhoneE164 = strings.TrimSpace(out.Site.PhoneE164)
	if out.App.DataDir == "" {
		out.App.DataDir = "."
	}

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	for _, x := range out.App.TrustedProxies {
		if _, err := ParsePrefixes([]string{x}); err != nil {
			res.addErr("app.trusted_proxies: %v", err)
		}
	}
	if len(out.App.TrustedProxies) == 0 && out.App.Host != "" && out.App.Host != "0.0.0.0" && out.App.Host != "::" {
		res.addWarn("app.trusted_proxies is empty; behind a reverse proxy every visitor shares one lead rate limit.")
	}

	// site identity
	if strings.TrimSpace(out.Site.BrandName) == "" {
		res.addErr("site.brand_name is required")
	}
	if out.Site.PhoneDisplay == "" {
		res.addWarn("site.phone_display is empty; the failure notice will not offer a fallback number.")
	}
	if out.Site.PhoneE164 != "" && !strings.HasPrefix(out.Site.PhoneE164, "+") {
		res.addErr("site.phone_e164 must start with + (got %q)", out.Site.PhoneE164)
	}
	if out.Site.RenderBudget < 0 {
		res.addErr("site.render_budget must be >= 0")
	} else if out.Site.RenderBudget > 10*time.Second {
		res.addWarn("site.render_budget is %s; pages will wait that long on a slow store.", out.Site.RenderBudget)
	}
	if out.Site.SuccessAutoHide < 0 {
		res.addErr("site.success_autohide must be >= 0")
	}

	checkCollection := func(key, v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			res.addErr("collections.%s is required", key)
		} else if strings.ContainsAny(v, "/?#% ") {
			res.addErr("collections.%s has invalid characters: %q", key, v)
		}
	}
	checkCollection("services", out.Collections.Services)
	checkCollection("careers", out.Collections.Careers)
	checkCollection("leads", out.Collections.Leads)

	// backend specific
	switch out.Store.Backend {
	case BackendSQLite:
	case BackendMemory:
		res.addWarn("store.backend is memory; leads are lost on restart.")
	case BackendDynamoDB:
		if strings.TrimSpace(out.Store.Table) == "" {
			res.addErr("store.table is required when store.backend=dynamodb")
		}
		if strings.TrimSpace(out.Store.Region) == "" {
			res.addErr("store.region is required when store.backend=dynamodb")
		}
	case BackendRemote:
		u, err := url.Parse(out.Store.BaseURL)
		if out.Store.BaseURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			res.addErr("store.base_url must be an http(s) URL when store.backend=remote")
		} else if u.Scheme == "http" {
			res.addWarn("store.base_url uses plain http; the API token is sent in clear text.")
		}
		if out.Store.ReqPerSec < 0 {
			res.addErr("store.req_per_sec must be >= 0")
		}
	case "":
		res.addErr("store.backend is required")
	default:
		res.addErr("store.backend must be one of sqlite, dynamodb, remote, memory (got %q)", out.Store.Backend)
	}

	// leads
	if out.Lead.RatePerMinute < 0 {
		res.addErr("lead.rate_per_minute must be >= 0")
	} else if out.Lead.RatePerMinute == 0 {
		res.addWarn("lead.rate_per_minute is 0; lead submissions are not rate limited.")
	}
	if out.Lead.Burst < 0 {
		res.addErr("lead.burst must be >= 0")
	}
	if out.Lead.DedupeWindow < 0 {
		res.addErr("lead.dedupe_window must be >= 0")
	}

	// images
	if len(out.Images.Hosts) == 0 {
		res.addWarn("images.hosts is empty; the image proxy will refuse every URL.")
	}
	if out.Images.MaxAge <= 0 {
		res.addErr("images.max_age must be > 0")
	}
	if out.Images.SweepEvery <= 0 {
		res.addErr("images.sweep_every must be > 0")
	}

	return out, res
}
