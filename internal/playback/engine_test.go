package playback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecEngine_RejectsEmptyManifest(t *testing.T) {
	e := NewExecEngine("", nil)
	err := e.Initialize(context.Background(), "gallery", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no manifest url")
}

func TestExecEngine_MissingBinary(t *testing.T) {
	e := NewExecEngine("definitely-not-a-player-binary", nil)
	err := e.Initialize(context.Background(), "gallery", "http://localhost/content/clip/manifest.mpd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start player")
}

func TestExecEngine_DisposeWithoutInitialize(t *testing.T) {
	e := NewExecEngine("", nil)
	assert.NoError(t, e.Dispose())
	assert.NoError(t, e.Dispose())
}

func TestNopEngine(t *testing.T) {
	var e Engine = NopEngine{}
	assert.NoError(t, e.Initialize(context.Background(), "gallery", "http://localhost/m.mpd"))
	assert.NoError(t, e.Dispose())
}
