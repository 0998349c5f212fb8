package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Prefs is client-local state persisted across sessions.
type Prefs struct {
	PreferredLanguage string `toml:"preferred-language"`
}

// LoadPrefs reads persisted preferences. A missing file yields zero
// preferences, not an error.
func LoadPrefs(path string) (Prefs, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Prefs{}, nil
		}
		return Prefs{}, fmt.Errorf("failed to stat prefs: %w", err)
	}
	var prefs Prefs
	if _, err := toml.DecodeFile(path, &prefs); err != nil {
		return Prefs{}, fmt.Errorf("failed to decode prefs: %w", err)
	}
	return prefs, nil
}

// SavePrefs writes preferences, creating the directory when needed.
func SavePrefs(path string, prefs Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create prefs directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create prefs file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	if err := toml.NewEncoder(f).Encode(prefs); err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}
	return nil
}
