/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration: a YAML file in the per-user
// config directory, merged over Defaults and then overridden by BEADLOOM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"beadloom/internal/domain"
	applog "beadloom/internal/log"
)

// CanvasConfig is the on-screen canvas size in pixels. The width also fixes
// the bead step of new canvases.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PaintConfig holds colors as hex strings (#rgb, #rrggbb or #rrggbbaa).
type PaintConfig struct {
	Color           string  `yaml:"color"`
	DefaultBead     string  `yaml:"default_bead"`
	Background      string  `yaml:"background"`
	StrokeWidth     float64 `yaml:"stroke_width"`
	KDTreeThreshold int     `yaml:"kdtree_threshold"`
	// Palette names the palette imports snap to; empty keeps exact colors.
	Palette string `yaml:"palette"`
}

type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Preset string `yaml:"preset"`
}

type CacheConfig struct {
	Dir      string `yaml:"dir"` // empty: user cache dir
	MaxBytes int64  `yaml:"max_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	Canvas        CanvasConfig    `yaml:"canvas"`
	Grid          domain.GridSize `yaml:"grid"`
	Paint         PaintConfig     `yaml:"paint"`
	Export        ExportConfig    `yaml:"export"`
	Cache         CacheConfig     `yaml:"cache"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Canvas:        CanvasConfig{Width: 800, Height: 1000},
		Grid:          domain.GridSize{Width: 30, Height: 60},
		Paint: PaintConfig{
			Color:           "#ffffff",
			DefaultBead:     "#8e8e93",
			Background:      "#8e8e93",
			StrokeWidth:     1,
			KDTreeThreshold: 4096,
		},
		Export:  ExportConfig{Dir: "exports", Preset: "web"},
		Cache:   CacheConfig{MaxBytes: 64 * 1024 * 1024},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir     = "BEADLOOM_CONFIG_DIR"
	EnvCanvasWidth   = "BEADLOOM_CANVAS_WIDTH"
	EnvCanvasHeight  = "BEADLOOM_CANVAS_HEIGHT"
	EnvGridWidth     = "BEADLOOM_GRID_WIDTH"
	EnvGridHeight    = "BEADLOOM_GRID_HEIGHT"
	EnvPaintColor    = "BEADLOOM_PAINT_COLOR"
	EnvDefaultBead   = "BEADLOOM_DEFAULT_COLOR"
	EnvBackground    = "BEADLOOM_BACKGROUND"
	EnvKDThreshold   = "BEADLOOM_KDTREE_THRESHOLD"
	EnvPalette       = "BEADLOOM_PALETTE"
	EnvExportDir     = "BEADLOOM_EXPORT_DIR"
	EnvCacheDir      = "BEADLOOM_CACHE_DIR"
	EnvCacheMaxBytes = "BEADLOOM_PREVIEWS_MAX_BYTES"
)

// envKeys maps dotted config keys to their override variable.
var envKeys = map[string]string{
	"canvas.width":           EnvCanvasWidth,
	"canvas.height":          EnvCanvasHeight,
	"grid.width":             EnvGridWidth,
	"grid.height":            EnvGridHeight,
	"paint.color":            EnvPaintColor,
	"paint.default_bead":     EnvDefaultBead,
	"paint.background":       EnvBackground,
	"paint.kdtree_threshold": EnvKDThreshold,
	"paint.palette":          EnvPalette,
	"export.dir":             EnvExportDir,
	"cache.dir":              EnvCacheDir,
	"cache.max_bytes":        EnvCacheMaxBytes,
	"logging.level":          applog.EnvLevel,
	"logging.format":         applog.EnvFormat,
	"logging.source":         applog.EnvSource,
	"logging.file":           applog.EnvFile,
}

// ConfigDir returns the per-user config directory. BEADLOOM_CONFIG_DIR wins.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Beadloom")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Beadloom")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "beadloom")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "beadloom")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. A malformed file is reported, not ignored.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// Save writes the user config YAML and returns the file path.
func Save(cfg AppConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// Validate checks sizes and colors.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if !c.Grid.Valid() {
		errs = append(errs, fmt.Errorf("grid size must be positive, got %dx%d", c.Grid.Width, c.Grid.Height))
	}
	if c.Paint.KDTreeThreshold < 0 {
		errs = append(errs, errors.New("kdtree_threshold must not be negative"))
	}
	if _, err := c.Paint.Colors(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Palette is the resolved set of paint colors.
type Palette struct {
	Paint, DefaultBead, Background domain.Color
}

// Colors parses the configured hex colors.
func (p PaintConfig) Colors() (Palette, error) {
	var out Palette
	for _, f := range []struct {
		name string
		src  string
		dst  *domain.Color
	}{
		{"paint.color", p.Color, &out.Paint},
		{"paint.default_bead", p.DefaultBead, &out.DefaultBead},
		{"paint.background", p.Background, &out.Background},
	} {
		c, err := domain.ParseHex(f.src)
		if err != nil {
			return Palette{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = c
	}
	return out, nil
}

// LogOptions converts the logging section for log.Init.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{Level: c.Logging.Level, Format: c.Logging.Format, AddSource: c.Logging.Source, File: c.Logging.File}
}

// CacheDir returns the preview cache directory.
func (c AppConfig) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "beadloom"), nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Canvas.Width != 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height != 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if src.Grid.Width != 0 {
		dst.Grid.Width = src.Grid.Width
	}
	if src.Grid.Height != 0 {
		dst.Grid.Height = src.Grid.Height
	}
	if s := strings.TrimSpace(src.Paint.Color); s != "" {
		dst.Paint.Color = s
	}
	if s := strings.TrimSpace(src.Paint.DefaultBead); s != "" {
		dst.Paint.DefaultBead = s
	}
	if s := strings.TrimSpace(src.Paint.Background); s != "" {
		dst.Paint.Background = s
	}
	if src.Paint.StrokeWidth != 0 {
		dst.Paint.StrokeWidth = src.Paint.StrokeWidth
	}
	if src.Paint.KDTreeThreshold != 0 {
		dst.Paint.KDTreeThreshold = src.Paint.KDTreeThreshold
	}
	if s := strings.TrimSpace(src.Paint.Palette); s != "" {
		dst.Paint.Palette = s
	}
	if s := strings.TrimSpace(src.Export.Dir); s != "" {
		dst.Export.Dir = s
	}
	if s := strings.TrimSpace(src.Export.Preset); s != "" {
		dst.Export.Preset = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Cache.Dir); s != "" {
		dst.Cache.Dir = s
	}
	if src.Cache.MaxBytes != 0 {
		dst.Cache.MaxBytes = src.Cache.MaxBytes
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func envInt(name string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envString(name string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func envBool(name string, dst *bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		lv := strings.ToLower(v)
		*dst = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	envInt(EnvCanvasWidth, &cfg.Canvas.Width)
	envInt(EnvCanvasHeight, &cfg.Canvas.Height)
	envInt(EnvGridWidth, &cfg.Grid.Width)
	envInt(EnvGridHeight, &cfg.Grid.Height)
	envString(EnvPaintColor, &cfg.Paint.Color)
	envString(EnvDefaultBead, &cfg.Paint.DefaultBead)
	envString(EnvBackground, &cfg.Paint.Background)
	envInt(EnvKDThreshold, &cfg.Paint.KDTreeThreshold)
	envString(EnvPalette, &cfg.Paint.Palette)
	envString(EnvExportDir, &cfg.Export.Dir)
	envString(EnvCacheDir, &cfg.Cache.Dir)
	if v := strings.TrimSpace(os.Getenv(EnvCacheMaxBytes)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Cache.MaxBytes = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(applog.EnvLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(applog.EnvFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	envBool(applog.EnvSource, &cfg.Logging.Source)
	envString(applog.EnvFile, &cfg.Logging.File)
}

// Keys returns the dotted config keys that have an environment override, sorted.
func Keys() []string {
	keys := make([]string, 0, len(envKeys))
	for k := range envKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
