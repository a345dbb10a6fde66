package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vkcapture/gapid2/internal/transform"
)

func TestLayersParsesSemicolonList(t *testing.T) {
	t.Setenv(EnvLayers, "/a/one.so;/b/two.so;")
	assert.Equal(t, []string{"/a/one.so", "/b/two.so"}, Layers())
}

func TestLayersEmptyWhenUnset(t *testing.T) {
	t.Setenv(EnvLayers, "")
	assert.Nil(t, Layers())
}

func TestUserConfigReadsEnv(t *testing.T) {
	t.Setenv(EnvUserConfig, "some-opaque-string")
	assert.Equal(t, "some-opaque-string", UserConfig())
}

func TestLoadNoLayersReturnsNextUnchanged(t *testing.T) {
	next := transform.NewBase("next", nil)
	got, err := Load(nil, "", &next)
	assert.NoError(t, err)
	assert.Same(t, &next, got)
}

func TestLoadMissingPluginFails(t *testing.T) {
	next := transform.NewBase("next", nil)
	_, err := Load([]string{"/nonexistent/layer.so"}, "", &next)
	assert.Error(t, err)
}
