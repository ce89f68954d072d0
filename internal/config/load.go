package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load returns the defaults merged with the YAML file at path. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies flag overrides, fills derived paths and validates the
// result.
func (c *Config) Resolve(f Flags) error {
	if f.Input != "" {
		c.Paths.Input = f.Input
	}
	if f.Output != "" {
		c.Paths.Output = f.Output
	}
	if f.Extracted != "" {
		c.Paths.Extracted = f.Extracted
	}
	if f.DataRoot != "" {
		c.Paths.DataRoot = f.DataRoot
	}
	if f.PNG {
		c.Policy.SavePNG = true
	}
	if f.NoCompressed {
		c.Policy.SaveCompressed = false
	}
	if f.OnlyPNG {
		c.Policy.SavePNG = true
		c.Policy.SaveCompressed = false
	}
	if f.SaveRenderings {
		c.Policy.SaveRenderings = true
	}
	if f.SaveVanilla {
		c.Policy.SaveNonPrimary = true
	}
	if f.NoFilters {
		c.Filters.Enabled = false
	}
	if f.Steep {
		c.Policy.FlatOverwritesSteep = false
	}
	if f.Workers > 0 {
		c.Batch.Workers = f.Workers
	}
	if f.Debug {
		c.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		c.Logging.File = f.LogFile
	}

	if c.Paths.Input == "" {
		c.Paths.Input = "."
	}
	if c.Paths.Output == "" {
		c.Paths.Output = filepath.Join(inputDir(c.Paths.Input), OutputDirName)
	}
	c.Paths.Output = filepath.ToSlash(c.Paths.Output)
	if c.Paths.DataRoot != "" && !strings.HasSuffix(c.Paths.DataRoot, "/") {
		c.Paths.DataRoot = filepath.ToSlash(c.Paths.DataRoot) + "/"
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 1
	}
	return c.Validate()
}

// inputDir returns the directory of a single-file input.
func inputDir(input string) string {
	if strings.EqualFold(filepath.Ext(input), ".cfg") {
		return filepath.Dir(input)
	}
	return input
}
