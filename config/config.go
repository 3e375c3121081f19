// Package config holds the fixed pipeline parameters and the few ambient
// settings (logging, manifest) that may be taken from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"imagevariants/types"
)

// Fixed pipeline parameters.
const (
	SourceDir   = "assets/images/posts"
	WebPQuality = 80
	JPEGQuality = 85
)

// Defaults for the ambient settings.
const (
	DefaultManifestPath = ".imagevariants.db"
	DefaultLogFile      = "imagevariants.log"
)

// Environment variables read by ApplyEnv.
const (
	EnvDebug    = "IMAGEVARIANTS_DEBUG"
	EnvLogFile  = "IMAGEVARIANTS_LOG_FILE"
	EnvManifest = "IMAGEVARIANTS_MANIFEST"
)

// Config holds all runtime settings. Sizes and Formats are iterated in order.
type Config struct {
	SourceDir string
	Sizes     []types.SizeProfile
	Formats   []types.FormatProfile

	// Ambient settings.
	Debug        bool
	LogFile      string // Only used when Debug is set.
	ManifestPath string // Empty disables the run manifest.
}

// DefaultConfig returns the fixed configuration the pipeline runs with.
func DefaultConfig() Config {
	return Config{
		SourceDir: SourceDir,
		Sizes: []types.SizeProfile{
			{Name: "thumbnail", Width: 300},
			{Name: "small", Width: 640},
			{Name: "medium", Width: 1024},
			{Name: "large", Width: 1920},
		},
		Formats: []types.FormatProfile{
			{Name: "webp", Label: "WebP", Ext: ".webp", Quality: WebPQuality},
			{Name: "jpeg", Label: "JPEG", Ext: ".jpg", Quality: JPEGQuality},
		},
		LogFile:      DefaultLogFile,
		ManifestPath: DefaultManifestPath,
	}
}

// SizeNames returns the size profile names in iteration order.
func (c *Config) SizeNames() []string {
	names := make([]string, 0, len(c.Sizes))
	for _, s := range c.Sizes {
		names = append(names, s.Name)
	}
	return names
}

// Extensions returns the output extensions in iteration order.
func (c *Config) Extensions() []string {
	exts := make([]string, 0, len(c.Formats))
	for _, f := range c.Formats {
		exts = append(exts, f.Ext)
	}
	return exts
}

// ApplyEnv overrides ambient settings from the environment. lookup is
// normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, v, err)
		}
		c.Debug = b
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.LogFile = v
	}
	if v, ok := lookup(EnvManifest); ok {
		c.ManifestPath = strings.TrimSpace(v)
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New("source directory is empty")
	}
	if len(c.Sizes) == 0 {
		return errors.New("no size profiles")
	}
	if len(c.Formats) == 0 {
		return errors.New("no format profiles")
	}

	seen := make(map[string]bool, len(c.Sizes))
	for _, s := range c.Sizes {
		if s.Name == "" {
			return errors.New("size profile with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate size profile %q", s.Name)
		}
		seen[s.Name] = true
		if s.Width <= 0 {
			return fmt.Errorf("size profile %q: width must be positive, got %d", s.Name, s.Width)
		}
	}

	exts := make(map[string]bool, len(c.Formats))
	for _, f := range c.Formats {
		if !strings.HasPrefix(f.Ext, ".") {
			return fmt.Errorf("format %q: extension %q must start with a dot", f.Name, f.Ext)
		}
		if exts[f.Ext] {
			return fmt.Errorf("duplicate output extension %q", f.Ext)
		}
		exts[f.Ext] = true
		if f.Quality < 1 || f.Quality > 100 {
			return fmt.Errorf("format %q: quality must be 1-100, got %d", f.Name, f.Quality)
		}
	}

	if c.Debug && c.LogFile == "" {
		return errors.New("debug mode requires a log file")
	}
	return nil
}
