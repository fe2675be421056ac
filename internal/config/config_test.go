package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "pendulum" {
		t.Errorf("expected model pendulum, got %s", cfg.Model)
	}
	if cfg.Target != "native" {
		t.Errorf("expected native target, got %s", cfg.Target)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"target", func(c *Config) { c.Target = "wasm" }},
		{"sweep points", func(c *Config) { c.Sweep.Points = 1 }},
		{"dt", func(c *Config) { c.Simulate.Dt = 0 }},
		{"max iter", func(c *Config) { c.Minimize.MaxIter = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynsym.yaml")
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.Sparse = true
	cfg.Overrides["lorenz"] = Overrides{P: map[string]float64{"rho": 14}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	o := GetPreset("pendulum", "small")
	if o == nil {
		t.Fatal("expected preset, got nil")
	}
	if o.U0["theta"] != 0.2 {
		t.Errorf("expected theta 0.2, got %f", o.U0["theta"])
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("pendulum", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "small") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	if diff := cmp.Diff([]string{"bounce", "damped", "fast"}, ListPresets("spring_mass")); diff != "" {
		t.Errorf("presets mismatch (-want +got):\n%s", diff)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestOverridesMerge(t *testing.T) {
	base := Overrides{U0: map[string]float64{"x": 1, "v": 2}}
	top := Overrides{U0: map[string]float64{"x": 5}, P: map[string]float64{"k": 3}}
	got := base.Merge(top)
	want := Overrides{U0: map[string]float64{"x": 5, "v": 2}, P: map[string]float64{"k": 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	if base.U0["x"] != 1 {
		t.Error("merge must not modify its receiver")
	}
}
