package relcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 50, cfg.BufferPoolPages)
	require.Equal(t, 10, cfg.LockWaitMillis)
	require.Equal(t, DeadlockThreshold, cfg.DeadlockThreshold)
	require.Equal(t, NumHistBins, cfg.HistogramBins)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.jsonc"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverlaysJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relcore.jsonc")
	contents := `{
		// pool sizing
		"buffer_pool_pages": 200,
		"lock_wait_millis": 25,
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 200, cfg.BufferPoolPages)
	require.Equal(t, 25, cfg.LockWaitMillis)
	require.Equal(t, DeadlockThreshold, cfg.DeadlockThreshold)
	require.Equal(t, NumHistBins, cfg.HistogramBins)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relcore.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
