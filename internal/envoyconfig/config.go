// Package envoyconfig loads envoy's own runtime settings — as opposed to
// the bundle-authored environment JSON files the core composes — from an
// optional envoy.yaml, with every setting overridable by an ENVOY_-prefixed
// environment variable (ENVOY_SEED_MODE, ENVOY_EXTRA_ALLOWLIST, ENVOY_ROOTS).
package envoyconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/gtvfx-contrib/envoy/internal/seedbuilder"
)

// Config holds envoy's own settings: the default seed mode, extra
// closed-mode allowlist entries, and a default bundle-roots list. These
// are defaults a CLI flag or an ENVOY_* environment variable may still
// override per call; they are not bundle content.
type Config struct {
	SeedMode       string   `mapstructure:"seed_mode"`
	ExtraAllowlist []string `mapstructure:"extra_allowlist"`
	Roots          []string `mapstructure:"roots"`
}

// Mode converts SeedMode into a seedbuilder.Mode, defaulting to
// seedbuilder.ModeClosed for any value other than "inherited".
func (c *Config) Mode() seedbuilder.Mode {
	if strings.EqualFold(c.SeedMode, "inherited") {
		return seedbuilder.ModeInherited
	}
	return seedbuilder.ModeClosed
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME placeholders inside a
// config string value. This is envoy's own config-file interpolation —
// distinct from, and never consulted by, the bundle-level Expander
// (internal/expand), which never reads the host environment at all.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func resolveEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match
		switch {
		case strings.HasPrefix(match, "${") && strings.HasSuffix(match, "}"):
			name = match[2 : len(match)-1]
		case strings.HasPrefix(match, "$"):
			name = match[1:]
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// Load reads envoy.yaml from the current directory, $ENVOY_CONFIG_DIR (if
// set), and $HOME/.config/envoy, in that search order, and layers
// ENVOY_*-prefixed environment variables on top via viper.AutomaticEnv.
// A missing config file is not an error: Load returns the zero-value
// defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("envoy")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := os.Getenv("ENVOY_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "envoy"))
	}

	v.SetDefault("seed_mode", "closed")

	v.SetEnvPrefix("ENVOY")
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows (from the file or
	// a default); bind the list keys so their env vars apply without a file.
	for _, key := range []string{"extra_allowlist", "roots"} {
		_ = v.BindEnv(key)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("envoyconfig: failed to read envoy.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("envoyconfig: failed to unmarshal settings: %w", err)
	}

	cfg.SeedMode = resolveEnvVars(cfg.SeedMode)
	for i, root := range cfg.Roots {
		cfg.Roots[i] = resolveEnvVars(root)
	}

	return &cfg, nil
}
