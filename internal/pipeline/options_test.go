// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/carfacnap/audio"
	"github.com/ik5/carfacnap/cache"
	"github.com/ik5/carfacnap/internal/config"
)

func TestFromConfig(t *testing.T) {
	c, err := config.Load(config.New())
	require.NoError(t, err)

	c.Resample.Method = "cubic"
	c.Resample.Quality = "low"
	c.Filter.Local = true
	c.Timeout = time.Minute

	o, err := FromConfig(c)
	require.NoError(t, err)

	want := DefaultOptions()
	want.Method = audio.MethodCubic
	want.Quality = audio.QualityLow
	want.LocalFilter = true
	want.Timeout = time.Minute

	assert.Equal(t, want, o)
}

func TestFromConfig_DefaultsMatch(t *testing.T) {
	c, err := config.Load(config.New())
	require.NoError(t, err)

	o, err := FromConfig(c)
	require.NoError(t, err)

	assert.Equal(t, DefaultOptions(), o)
}

func TestCacheParams_KeyChangesWithOptions(t *testing.T) {
	digest := []byte("same input")

	a := DefaultOptions()
	b := DefaultOptions()
	b.Suffix = ".nap"

	ka, err := cache.Key(digest, a.cacheParams())
	require.NoError(t, err)
	kb, err := cache.Key(digest, b.cacheParams())
	require.NoError(t, err)

	assert.NotEqual(t, ka, kb)

	// Options that do not change the result share a key.
	c := DefaultOptions()
	c.KeepIntermediate = false
	c.Timeout = time.Hour
	kc, err := cache.Key(digest, c.cacheParams())
	require.NoError(t, err)

	assert.Equal(t, ka, kc)
}
