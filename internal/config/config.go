package config

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		DataDir    string `yaml:"data_dir"`
		AdminToken string `yaml:"admin_token"`

		// TrustedProxies are the peers (IPs or CIDRs) whose X-Forwarded-For is believed.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"app"`

	Site struct {
		BrandName         string        `yaml:"brand_name"`
		Domain            string        `yaml:"domain"`
		ServiceArea       string        `yaml:"service_area"`
		PhoneDisplay      string        `yaml:"phone_display"`
		PhoneE164         string        `yaml:"phone_e164"`
		Email             string        `yaml:"email"`
		RenderBudget      time.Duration `yaml:"render_budget"`
		SuccessAutoHide   time.Duration `yaml:"success_autohide"`
		SurfaceListErrors bool          `yaml:"surface_list_errors"`
	} `yaml:"site"`

	Collections struct {
		Services string `yaml:"services"`
		Careers  string `yaml:"careers"`
		Leads    string `yaml:"leads"`
	} `yaml:"collections"`

	Store struct {
		// Backend is sqlite, dynamodb, remote or memory.
		Backend        string        `yaml:"backend"`
		Path           string        `yaml:"path"`
		Table          string        `yaml:"table"`
		Region         string        `yaml:"region"`
		BaseURL        string        `yaml:"base_url"`
		KeyringAccount string        `yaml:"keyring_account"`
		Timeout        time.Duration `yaml:"timeout"`
		ReqPerSec      float64       `yaml:"req_per_sec"`
		Burst          int           `yaml:"burst"`
	} `yaml:"store"`

	Lead struct {
		RatePerMinute float64       `yaml:"rate_per_minute"`
		Burst         int           `yaml:"burst"`
		DedupeWindow  time.Duration `yaml:"dedupe_window"`
	} `yaml:"lead"`

	Images struct {
		Hosts      []string      `yaml:"hosts"`
		MaxAge     time.Duration `yaml:"max_age"`
		SweepEvery time.Duration `yaml:"sweep_every"`
	} `yaml:"images"`
}

const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendRemote   = "remote"
	BackendMemory   = "memory"
)

// Load reads path over the built-in defaults, so keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Default is the embedded default.yml.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return cfg, fmt.Errorf("parse default config: %w", err)
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.App.Host, strconv.Itoa(c.App.Port))
}

// DBPath resolves store.path against the data dir.
func (c Config) DBPath() string {
	p := c.Store.Path
	if p == "" {
		p = "site.db"
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

// ParsePrefixes reads IPs and CIDRs. A bare IP becomes a single-address prefix.
func ParsePrefixes(xs []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(xs))
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if strings.Contains(x, "/") {
			p, err := netip.ParsePrefix(x)
			if err != nil {
				return nil, fmt.Errorf("bad prefix %q: %w", x, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(x)
		if err != nil {
			return nil, fmt.Errorf("bad address %q: %w", x, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

// TrustedProxies is app.trusted_proxies parsed. Entries that do not parse are skipped.
func (c Config) TrustedProxies() []netip.Prefix {
	var out []netip.Prefix
	for _, x := range c.App.TrustedProxies {
		ps, err := ParsePrefixes([]string{x})
		if err == nil {
			out = append(out, ps...)
		}
	}
	return out
}
