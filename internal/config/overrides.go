package config

import "github.com/spf13/viper"

// ApplyOverrides copies flag and VALET_* environment values set in v onto cfg.
// Keys use the YAML dotted names (store.backend, app.port, ...).
func ApplyOverrides(cfg *Config, v *viper.Viper) {
	if v == nil {
		return
	}
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	str("app.host", &cfg.App.Host)
	if v.IsSet("app.port") {
		cfg.App.Port = v.GetInt("app.port")
	}
	str("app.admin_token", &cfg.App.AdminToken)

	str("store.backend", &cfg.Store.Backend)
	str("store.path", &cfg.Store.Path)
	str("store.table", &cfg.Store.Table)
	str("store.region", &cfg.Store.Region)
	str("store.base_url", &cfg.Store.BaseURL)

	if v.IsSet("site.surface_list_errors") {
		cfg.Site.SurfaceListErrors = v.GetBool("site.surface_list_errors")
	}
	if v.IsSet("site.render_budget") {
		cfg.Site.RenderBudget = v.GetDuration("site.render_budget")
	}
}
