package relcore

import (
	"encoding/json"
	"os"

	"github.com/tailscale/hujson"
)

// Config holds the tunables an embedder of relcore typically wants to set
// without recompiling: pool sizing and the two retry/threshold knobs that
// govern deadlock detection (spec.md §4.2, §4.3). Files are JSONC (JSON
// with comments and trailing commas), parsed via hujson the way the
// broader example pack's own config loader does.
type Config struct {
	BufferPoolPages   int `json:"buffer_pool_pages"`
	LockWaitMillis    int `json:"lock_wait_millis"`
	DeadlockThreshold int `json:"deadlock_threshold"`
	HistogramBins     int `json:"histogram_bins"`
}

// DefaultConfig returns the engine's built-in defaults, matching the
// constants spec.md names directly (spec.md §4.2 default capacity, §4.3
// LOCK_WAIT/threshold, §4.6 NumHistBins).
func DefaultConfig() Config {
	return Config{
		BufferPoolPages:   50,
		LockWaitMillis:    10,
		DeadlockThreshold: DeadlockThreshold,
		HistogramBins:     NumHistBins,
	}
}

// LoadConfig reads a JSONC config file at path and overlays it onto
// DefaultConfig(); a zero value for any field leaves the default in place.
// A missing file is not an error: DefaultConfig() is returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, wrapErr(IoError, "read config "+path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, wrapErr(IllegalArgumentError, "invalid JSONC in "+path, err)
	}

	var overlay Config
	if err := json.Unmarshal(standardized, &overlay); err != nil {
		return Config{}, wrapErr(IllegalArgumentError, "invalid config JSON in "+path, err)
	}

	if overlay.BufferPoolPages != 0 {
		cfg.BufferPoolPages = overlay.BufferPoolPages
	}
	if overlay.LockWaitMillis != 0 {
		cfg.LockWaitMillis = overlay.LockWaitMillis
	}
	if overlay.DeadlockThreshold != 0 {
		cfg.DeadlockThreshold = overlay.DeadlockThreshold
	}
	if overlay.HistogramBins != 0 {
		cfg.HistogramBins = overlay.HistogramBins
	}

	return cfg, nil
}
