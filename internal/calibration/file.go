// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveFile writes b to path as YAML, creating parent directories.
func SaveFile(path string, b Bias) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("calibration: marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("calibration: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("calibration: write %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a Bias written by SaveFile.
func LoadFile(path string) (Bias, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bias{}, fmt.Errorf("calibration: read %s: %w", path, err)
	}
	var b Bias
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bias{}, fmt.Errorf("calibration: parse %s: %w", path, err)
	}
	if b.Samples <= 0 {
		return Bias{}, fmt.Errorf("calibration: %s has no samples recorded", path)
	}
	return b, nil
}
