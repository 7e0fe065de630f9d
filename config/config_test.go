package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Game.ID != "pd" || cfg.Spatial.Size != 50 || cfg.Dynamics.Kind != "replicator" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Derived.Workers < 1 {
		t.Errorf("derived workers %d", cfg.Derived.Workers)
	}
	if cfg.Derived.RandomPairs {
		t.Error("radius 1 should not enable random pairing")
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := "spatial:\n  size: 20\n  radius: 0\ndynamics:\n  kind: fermi\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Spatial.Size != 20 || cfg.Dynamics.Kind != "fermi" {
		t.Errorf("override not applied: %+v", cfg.Spatial)
	}
	if cfg.Spatial.Topology != "toroidal" || cfg.Dynamics.FermiBeta != 0.1 {
		t.Error("untouched keys should keep their defaults")
	}
	if !cfg.Derived.RandomPairs {
		t.Error("radius 0 should enable random pairing")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"size", func(c *Config) { c.Spatial.Size = 0 }, "spatial.size"},
		{"topology", func(c *Config) { c.Spatial.Topology = "klein" }, "spatial.topology"},
		{"dynamic", func(c *Config) { c.Dynamics.Kind = "lamarck" }, "dynamics.kind"},
		{"mode", func(c *Config) { c.Interaction.Mode = "both" }, "interaction.mode"},
		{"pairing", func(c *Config) { c.Interaction.Pairing = "none" }, "interaction.pairing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := Load("")
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}

	cfg, _ := Load("")
	cfg.Spatial.Distribution = map[string]float64{"Cooperate": 3}
	if err := cfg.Validate(); err != nil {
		t.Errorf("distribution fractions must not be validated: %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, _ := Load("")
	cfg.Spatial.Size = 33
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Spatial.Size != 33 {
		t.Errorf("size = %d", back.Spatial.Size)
	}
}
