// Package config holds the run settings: defaults, a YAML file and
// command-line overrides.
package config

import (
	"fmt"
	"strings"

	"snow-texture-generator/internal/filter"
	"snow-texture-generator/internal/raster"
	"snow-texture-generator/internal/texture"
)

// OutputDirName is created inside the input directory when no output
// directory is given.
const OutputDirName = "[Winter] Snow"

// Config holds all settings of a run.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Policy  PolicyConfig  `yaml:"policy"`
	Filters FiltersConfig `yaml:"filters"`
	Render  RenderConfig  `yaml:"render"`
	Batch   BatchConfig   `yaml:"batch"`
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig locates inputs and outputs.
type PathsConfig struct {
	Input     string `yaml:"input"`     // directory scanned for .cfg files, or one .cfg
	Output    string `yaml:"output"`    // default: <input>/[Winter] Snow
	Extracted string `yaml:"extracted"` // fallback tree with extracted game data
	DataRoot  string `yaml:"data_root"` // overrides the root derived from config paths
}

// PolicyConfig selects what is computed and written.
type PolicyConfig struct {
	FlatOverwritesSteep bool   `yaml:"flat_overwrites_steep"`
	SaveNonPrimary      bool   `yaml:"save_non_primary_textures"`
	SavePNG             bool   `yaml:"save_png"`
	SaveCompressed      bool   `yaml:"save_compressed"`
	CompressedFormat    string `yaml:"compressed_format"` // webp, tga or png
	Wrap                string `yaml:"wrap"`              // fract or tile
	SaveRenderings      bool   `yaml:"save_renderings"`
}

// FiltersConfig holds the name filters. Preset "oldworld" adds the
// built-in lists to the configured ones.
type FiltersConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Preset           string   `yaml:"preset"`
	CfgBlacklist     []string `yaml:"cfg_blacklist"`
	CfgWhitelist     []string `yaml:"cfg_whitelist"`
	TextureBlacklist []string `yaml:"texture_blacklist"`
}

// RenderConfig tunes the noise field and the debug renderings.
type RenderConfig struct {
	NoiseSize   int    `yaml:"noise_size"`
	NoiseSeed   uint64 `yaml:"noise_seed"`
	PreviewSize int    `yaml:"preview_size"`
	Supersample int    `yaml:"supersample"`
}

// BatchConfig controls asset scheduling.
type BatchConfig struct {
	Workers         int `yaml:"workers"`
	ProgressSeconds int `yaml:"progress_seconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the settings used when neither file nor flags say
// otherwise.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{Input: "."},
		Policy: PolicyConfig{
			FlatOverwritesSteep: true,
			SaveCompressed:      true,
			CompressedFormat:    "webp",
			Wrap:                "fract",
		},
		Filters: FiltersConfig{Enabled: true},
		Render: RenderConfig{
			NoiseSize:   1024,
			PreviewSize: 512,
			Supersample: 2,
		},
		Batch:   BatchConfig{Workers: 1, ProgressSeconds: 5},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if _, err := texture.ParseFormat(c.Policy.CompressedFormat); err != nil {
		return fmt.Errorf("config: policy.compressed_format: %w", err)
	}
	if _, err := raster.ParseWrap(c.Policy.Wrap); err != nil {
		return fmt.Errorf("config: policy.wrap: %w", err)
	}
	switch strings.ToLower(c.Filters.Preset) {
	case "", "none", "oldworld":
	default:
		return fmt.Errorf("config: filters.preset: unknown preset %q", c.Filters.Preset)
	}
	if !c.Policy.SavePNG && !c.Policy.SaveCompressed {
		return fmt.Errorf("config: nothing to save, enable save_png or save_compressed")
	}
	return nil
}

// FilterLists returns the effective name filters.
func (c *Config) FilterLists() filter.Lists {
	l := filter.Lists{Enabled: c.Filters.Enabled}
	if strings.EqualFold(c.Filters.Preset, "oldworld") {
		p := filter.OldWorldPreset()
		l.CfgBlacklist = append(l.CfgBlacklist, p.CfgBlacklist...)
		l.CfgWhitelist = append(l.CfgWhitelist, p.CfgWhitelist...)
		l.TextureBlacklist = append(l.TextureBlacklist, p.TextureBlacklist...)
	}
	l.CfgBlacklist = append(l.CfgBlacklist, c.Filters.CfgBlacklist...)
	l.CfgWhitelist = append(l.CfgWhitelist, c.Filters.CfgWhitelist...)
	l.TextureBlacklist = append(l.TextureBlacklist, c.Filters.TextureBlacklist...)
	return l
}

// Format returns the container of compressed levels.
func (c *Config) Format() texture.Format {
	f, _ := texture.ParseFormat(c.Policy.CompressedFormat)
	return f
}

// WrapPolicy returns the UV wrap policy.
func (c *Config) WrapPolicy() raster.Wrap {
	w, _ := raster.ParseWrap(c.Policy.Wrap)
	return w
}
