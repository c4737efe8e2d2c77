package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Language != "en" {
		t.Errorf("language %q", cfg.Language)
	}
	if cfg.Script.SpeakingRateWPM != 150 || cfg.Script.MaxSegmentSec != 12 {
		t.Errorf("script defaults %+v", cfg.Script)
	}
	if cfg.Visuals.Width != 1080 || cfg.Visuals.Height != 1920 || cfg.Visuals.FPS != 30 {
		t.Errorf("frame defaults %+v", cfg.Visuals)
	}
	if cfg.Assemble.AudioCodec != "aac" {
		t.Errorf("audio codec %q", cfg.Assemble.AudioCodec)
	}
	if cfg.Upload.Enabled {
		t.Error("upload must be off by default")
	}
	if cfg.Paths.Final != "final" {
		t.Errorf("final path %q", cfg.Paths.Final)
	}
}

func TestLoadOverridesAndFills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
language: de
script:
  max_segment_sec: 9
visuals:
  font_size: 52
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Language != "de" {
		t.Errorf("language %q", cfg.Language)
	}
	if cfg.Script.MaxSegmentSec != 9 {
		t.Errorf("max segment %.1f", cfg.Script.MaxSegmentSec)
	}
	if cfg.Visuals.FontSize != 52 {
		t.Errorf("font size %d", cfg.Visuals.FontSize)
	}
	// Unset keys still get their defaults.
	if cfg.Script.SpeakingRateWPM != 150 {
		t.Errorf("wpm %d", cfg.Script.SpeakingRateWPM)
	}
	if cfg.Upload.DefaultLanguage != "de" {
		t.Errorf("upload language %q follows the pipeline language", cfg.Upload.DefaultLanguage)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
visuals:
  font_size: 30
  min_font_size: 40
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("min_font_size above font_size was accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing config file was accepted")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Language != "en" {
		t.Errorf("language %q", cfg.Language)
	}
}
