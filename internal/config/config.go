// Package config loads engine configuration from a YAML file with sane
// defaults for every key.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	ScenePath  string `yaml:"scenePath"`

	// MaxFogTextureSize caps the larger fog texture dimension; the fog
	// resolution scales down to fit.
	MaxFogTextureSize int `yaml:"maxFogTextureSize"`
	// FogCommitThreshold is the refresh count past which a save is
	// scheduled.
	FogCommitThreshold int `yaml:"fogCommitThreshold"`
	// FogSaveDebounceMs is the quiescence window before extraction runs.
	FogSaveDebounceMs int `yaml:"fogSaveDebounceMs"`

	// LightSoftEdges enables the ±8 px polygon edge offset.
	LightSoftEdges *bool `yaml:"lightSoftEdges"`
	// LightAnimation enables the per-frame animation ticker.
	LightAnimation *bool `yaml:"lightAnimation"`

	Fog struct {
		// Backend selects "memory" or "minio".
		Backend string `yaml:"backend"`
		Minio   struct {
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"accessKey"`
			SecretKey string `yaml:"secretKey"`
			Bucket    string `yaml:"bucket"`
			Secure    bool   `yaml:"secure"`
		} `yaml:"minio"`
	} `yaml:"fog"`
}

// SoftEdgeOffset is the polygon offset applied when soft edges are enabled.
const SoftEdgeOffset = 8.0

func Default() Config {
	var c Config
	c.ListenAddr = ":8080"
	c.ScenePath = "content/scene.json"
	c.MaxFogTextureSize = 4096
	c.FogCommitThreshold = 70
	c.FogSaveDebounceMs = 2000
	c.Fog.Backend = "memory"
	return c
}

// Load reads a YAML config file over the defaults. A missing file yields the
// defaults without error.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	if c.MaxFogTextureSize <= 0 {
		c.MaxFogTextureSize = 4096
	}
	if c.FogCommitThreshold <= 0 {
		c.FogCommitThreshold = 70
	}
	if c.FogSaveDebounceMs <= 0 {
		c.FogSaveDebounceMs = 2000
	}
	return c, nil
}

// SoftEdgesEnabled resolves the tri-state flag (default true).
func (c Config) SoftEdgesEnabled() bool {
	return c.LightSoftEdges == nil || *c.LightSoftEdges
}

// AnimationEnabled resolves the tri-state flag (default true).
func (c Config) AnimationEnabled() bool {
	return c.LightAnimation == nil || *c.LightAnimation
}
