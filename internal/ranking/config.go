package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Feed weight overrides
}

// LoadCalibration loads feed weights from a JSON calibration file.
// An empty path yields the defaults without error. On read or parse failure the defaults are
// returned together with the error so callers can log and carry on.
// Partial files are merged over the defaults.
func LoadCalibration(filePath string) (Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration applies the non-zero fields of override on top of base.
// A zero in the override means "keep the base value", so a weight cannot be disabled
// through calibration; set it to a tiny positive value instead.
func MergeCalibration(base, override Weights) Weights {
	result := base

	if override.Progress != 0 {
		result.Progress = override.Progress
	}
	if override.Engagement != 0 {
		result.Engagement = override.Engagement
	}
	if override.Virality != 0 {
		result.Virality = override.Virality
	}
	if override.Recency != 0 {
		result.Recency = override.Recency
	}
	if override.Discovery != 0 {
		result.Discovery = override.Discovery
	}

	return result
}

// logCalibrationOverrides logs which weights differ from the defaults.
func logCalibrationOverrides(defaults, loaded Weights) {
	fields := []struct {
		name     string
		from, to float64
	}{
		{"progress", defaults.Progress, loaded.Progress},
		{"engagement", defaults.Engagement, loaded.Engagement},
		{"virality", defaults.Virality, loaded.Virality},
		{"recency", defaults.Recency, loaded.Recency},
		{"discovery", defaults.Discovery, loaded.Discovery},
	}

	var overrides []string
	for _, f := range fields {
		if f.from != f.to {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", f.name, f.from, f.to))
		}
	}

	if len(overrides) > 0 {
		slog.Info("loaded feed calibration with overrides",
			"overrides", overrides,
			"sum", loaded.Sum())
	} else {
		slog.Info("loaded feed calibration (using all defaults)")
	}
}
