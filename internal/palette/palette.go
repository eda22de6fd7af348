/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package palette manages named bead palettes: a few built-in sets plus YAML
// files in the user's palettes directory. Image import snaps sampled colors
// to a palette.
package palette

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"beadloom/internal/domain"
)

// DirName is the palettes folder inside the config directory.
const DirName = "palettes"

// ErrUnknown is returned when no palette has the requested name.
var ErrUnknown = errors.New("unknown palette")

// Palette is a named list of bead colors.
type Palette struct {
	Name   string         `yaml:"name"`
	Colors []domain.Color `yaml:"colors"`
}

// Validate checks that the palette is usable for snapping.
func (p Palette) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("palette name is required")
	}
	if len(p.Colors) == 0 {
		return fmt.Errorf("palette %q has no colors", p.Name)
	}
	return nil
}

var builtins = []Palette{
	{Name: "mono", Colors: []domain.Color{domain.Black, domain.White}},
	{Name: "gray", Colors: hexes("#000000", "#404040", "#808080", "#bfbfbf", "#ffffff")},
	{Name: "classic", Colors: hexes(
		"#000000", "#ffffff", "#8e8e93", "#c0392b", "#e67e22", "#f1c40f",
		"#27ae60", "#16a085", "#2980b9", "#8e44ad", "#6d4c41", "#f5cba7",
	)},
}

func hexes(ss ...string) []domain.Color {
	out := make([]domain.Color, len(ss))
	for i, s := range ss {
		out[i] = domain.MustHex(s)
	}
	return out
}

// Builtin returns a copy of the built-in palette with the given name.
func Builtin(name string) (Palette, bool) {
	for _, p := range builtins {
		if p.Name == name {
			return Palette{Name: p.Name, Colors: append([]domain.Color(nil), p.Colors...)}, true
		}
	}
	return Palette{}, false
}

// Dir returns the palettes directory below configDir.
func Dir(configDir string) string { return filepath.Join(configDir, DirName) }

func fileFor(dir, name string) string { return filepath.Join(dir, name+".yaml") }

// Load returns the named palette. Files in dir shadow built-ins.
func Load(dir, name string) (Palette, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return Palette{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	if dir != "" {
		data, err := os.ReadFile(fileFor(dir, name))
		switch {
		case err == nil:
			var p Palette
			if err := yaml.Unmarshal(data, &p); err != nil {
				return Palette{}, fmt.Errorf("parse palette %s: %w", name, err)
			}
			if p.Name == "" {
				p.Name = name
			}
			return p, p.Validate()
		case !errors.Is(err, os.ErrNotExist):
			return Palette{}, fmt.Errorf("read palette %s: %w", name, err)
		}
	}
	if p, ok := Builtin(name); ok {
		return p, nil
	}
	return Palette{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Save writes p as <dir>/<name>.yaml.
func Save(dir string, p Palette) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if strings.ContainsAny(p.Name, `/\`) {
		return "", fmt.Errorf("invalid palette name %q", p.Name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure palettes dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", err
	}
	path := fileFor(dir, p.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Names lists built-in and user palettes, sorted and without duplicates.
func Names(dir string) ([]string, error) {
	seen := map[string]bool{}
	for _, p := range builtins {
		seen[p.Name] = true
	}
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("list palettes: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".yaml" {
				seen[strings.TrimSuffix(e.Name(), ".yaml")] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
