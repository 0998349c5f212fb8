package config

import (
	"path/filepath"
	"testing"
)

func TestPrefsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := SavePrefs(path, Prefs{PreferredLanguage: "go"}); err != nil {
		t.Fatalf("failed to save prefs: %v", err)
	}
	prefs, err := LoadPrefs(path)
	if err != nil {
		t.Fatalf("failed to load prefs: %v", err)
	}
	if prefs.PreferredLanguage != "go" {
		t.Fatalf("unexpected preferred language: %q", prefs.PreferredLanguage)
	}
}

func TestLoadPrefsMissingFile(t *testing.T) {
	prefs, err := LoadPrefs(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing prefs file must not be an error, got %v", err)
	}
	if prefs.PreferredLanguage != "" {
		t.Fatalf("expected zero prefs, got %+v", prefs)
	}
}
