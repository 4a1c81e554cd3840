// Package config resolves runtime configuration from the environment over
// built-in defaults. With no environment set, behaviour matches the fixed
// constants the service shipped with.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tomasbasham/art-capture/internal/allowlist"
	"github.com/tomasbasham/art-capture/internal/pipeline"
)

// Config is the resolved service configuration.
type Config struct {
	ListenAddr      string
	AllowedPrefixes []string

	CaptureNavTimeout time.Duration
	FeatureNavTimeout time.Duration
	TriggerCeiling    time.Duration
	GlobalReadCeiling time.Duration

	EventName     string
	FeatureGlobal string

	ChromePath string
	FontsDir   string
}

// Load reads ARTCAP_* environment variables over the defaults, e.g.
// ARTCAP_LISTEN_ADDR or ARTCAP_ALLOWED_PREFIXES (comma separated).
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("artcap")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("allowed_prefixes", strings.Join(allowlist.Default, ","))
	v.SetDefault("capture_nav_timeout", pipeline.DefaultCaptureNavTimeout)
	v.SetDefault("feature_nav_timeout", pipeline.DefaultFeatureNavTimeout)
	v.SetDefault("trigger_ceiling", pipeline.DefaultTriggerCeiling)
	v.SetDefault("global_read_ceiling", pipeline.DefaultGlobalReadCeiling)
	v.SetDefault("event_name", pipeline.DefaultEventName)
	v.SetDefault("feature_global", pipeline.DefaultFeatureGlobal)
	v.SetDefault("chrome_path", "")
	v.SetDefault("fonts_dir", "")

	return &Config{
		ListenAddr:        v.GetString("listen_addr"),
		AllowedPrefixes:   splitPrefixes(v.GetString("allowed_prefixes")),
		CaptureNavTimeout: v.GetDuration("capture_nav_timeout"),
		FeatureNavTimeout: v.GetDuration("feature_nav_timeout"),
		TriggerCeiling:    v.GetDuration("trigger_ceiling"),
		GlobalReadCeiling: v.GetDuration("global_read_ceiling"),
		EventName:         v.GetString("event_name"),
		FeatureGlobal:     v.GetString("feature_global"),
		ChromePath:        v.GetString("chrome_path"),
		FontsDir:          v.GetString("fonts_dir"),
	}
}

// Pipeline translates the configuration into pipeline budgets.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		CaptureNavTimeout: c.CaptureNavTimeout,
		FeatureNavTimeout: c.FeatureNavTimeout,
		TriggerCeiling:    c.TriggerCeiling,
		GlobalReadCeiling: c.GlobalReadCeiling,
		EventName:         c.EventName,
		FeatureGlobal:     c.FeatureGlobal,
		ChromePath:        c.ChromePath,
		FontsDir:          c.FontsDir,
	}
}

func splitPrefixes(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
