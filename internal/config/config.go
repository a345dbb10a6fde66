// Package config reads the environment configuration spec.md §6 names:
// GAPID2_LAYERS (semicolon-separated layer library paths) and
// GAPID2_USER_CONFIG (an opaque string forwarded to each layer).
//
// The teacher never reaches for a flags/env library even for its own
// validation-layer and instance-extension lists (extensions.go,
// extensions_2.go use plain []string and os.Getenv-free config); this
// package keeps that plain-Go texture rather than pulling in viper or
// similar.
package config

import (
	"os"
	"strings"
)

// Config is the process-wide environment configuration for a capture
// session.
type Config struct {
	// LayerPaths is the ordered list of user layer libraries to splice
	// into the pipeline (see internal/layer).
	LayerPaths []string
	// UserConfig is opaque and forwarded verbatim to every loaded layer.
	UserConfig string
}

const (
	envLayers = "GAPID2_LAYERS"
	envConfig = "GAPID2_USER_CONFIG"
)

// FromEnvironment reads Config from the process environment.
func FromEnvironment() Config {
	var cfg Config
	if v := os.Getenv(envLayers); v != "" {
		for _, p := range strings.Split(v, ";") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.LayerPaths = append(cfg.LayerPaths, p)
			}
		}
	}
	cfg.UserConfig = os.Getenv(envConfig)
	return cfg
}
