package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("ride created", String("ride_id", "r-1"))
	log.Debug("dropped at info level")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"ride created"`)
	assert.Contains(t, string(data), `"ride_id":"r-1"`)
	assert.NotContains(t, string(data), "dropped at info level")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "verbose", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNew_BadOutputPath(t *testing.T) {
	_, err := New(Config{Level: "info", Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}
