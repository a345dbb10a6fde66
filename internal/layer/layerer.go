// Package layer implements spec §4.J: loading zero or more user
// layers — independently built transforms — and splicing them into
// the pipeline between the Spy and the state trackers.
//
// Grounded on original_source/layer_base.h (the initialize-a-chain-of-
// transforms-against-a-shared-next pattern) and layer_helper.h
// (GAPID2_LAYERS/GAPID2_USER_CONFIG, read from the environment as a
// semicolon-separated path list and an opaque config string). The
// original loads native shared objects directly; Go's standard
// `plugin` package is the idiomatic equivalent (the corpus has no
// other dynamic-loading example to ground on, and `plugin` is the only
// stdlib mechanism for this — there being no third-party alternative
// is the justification for reaching into the standard library here).
// A loaded plugin must export a `NewLayer` symbol of type
// `func(transform.Transform, string) transform.Transform`; the
// layerer calls it with the next transform in the chain and the
// user-config string, and splices the result in front of that next
// transform. Per the recorded Open Question decision, layers are
// loaded once at startup and never unloaded — Go's plugin package
// doesn't support unloading a shared object at all, and the original
// header is itself silent on unload lifetime.
package layer

import (
	"fmt"
	"os"
	"plugin"
	"strings"

	"github.com/vkcapture/gapid2/internal/logging"
	"github.com/vkcapture/gapid2/internal/transform"
)

var log = logging.For("layer")

// EnvLayers/EnvUserConfig name the environment variables
// layer_helper.h's get_layers/get_user_config read.
const (
	EnvLayers     = "GAPID2_LAYERS"
	EnvUserConfig = "GAPID2_USER_CONFIG"
)

// NewLayerFunc is the symbol every layer plugin must export under the
// name "NewLayer".
type NewLayerFunc func(next transform.Transform, userConfig string) transform.Transform

// Layers reads GAPID2_LAYERS, semicolon-separated, per
// layer_helper.h's get_layers.
func Layers() []string {
	e := os.Getenv(EnvLayers)
	if e == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(e, ";") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UserConfig reads GAPID2_USER_CONFIG per layer_helper.h's
// get_user_config.
func UserConfig() string {
	return os.Getenv(EnvUserConfig)
}

// Load opens each plugin path in order and splices its NewLayer
// result in front of next, so paths[0] ends up outermost (closest to
// the Spy) and next remains innermost (closest to the state
// trackers), matching layer_base.h's next-pointer chaining.
func Load(paths []string, userConfig string, next transform.Transform) (transform.Transform, error) {
	chain := next
	for i := len(paths) - 1; i >= 0; i-- {
		l, err := loadOne(paths[i], userConfig, chain)
		if err != nil {
			return nil, fmt.Errorf("layer: load %s: %w", paths[i], err)
		}
		log.WithField("path", paths[i]).Info("loaded layer")
		chain = l
	}
	return chain, nil
}

func loadOne(path string, userConfig string, next transform.Transform) (transform.Transform, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup("NewLayer")
	if err != nil {
		return nil, err
	}
	fn, ok := sym.(func(transform.Transform, string) transform.Transform)
	if !ok {
		return nil, fmt.Errorf("NewLayer has the wrong signature")
	}
	return fn(next, userConfig), nil
}
