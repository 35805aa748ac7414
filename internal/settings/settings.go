// SPDX-License-Identifier: MIT

// Package settings manages the mutable global settings singleton: the
// open-access flag, the set of disabled platforms and the global
// kill-switch. Business logic never reads these ambiently; it receives a
// snapshot per request.
package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/viewgate/viewgate/internal/entitle"
)

// file is the on-disk YAML shape of the settings singleton.
type file struct {
	OpenAccess        bool     `yaml:"open_access"`
	DisabledPlatforms []string `yaml:"disabled_platforms"`
	BlockAll          bool     `yaml:"block_all"`
}

// Load reads the settings file. A missing file yields the zero settings
// (everything enabled, nothing blocked), not an error.
func Load(path string) (entitle.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entitle.Settings{}, nil
		}
		return entitle.Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return entitle.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return fromFile(f), nil
}

// Save atomically rewrites the settings file. Readers either see the old
// or the new content, never a partial write.
func Save(path string, s entitle.Settings) error {
	data, err := yaml.Marshal(toFile(s))
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func fromFile(f file) entitle.Settings {
	s := entitle.Settings{
		OpenAccess: f.OpenAccess,
		BlockAll:   f.BlockAll,
	}
	for _, raw := range f.DisabledPlatforms {
		if p := entitle.ParsePlatform(raw); p != "" {
			s.DisabledPlatforms = append(s.DisabledPlatforms, p)
		}
	}
	return s
}

func toFile(s entitle.Settings) file {
	f := file{
		OpenAccess: s.OpenAccess,
		BlockAll:   s.BlockAll,
	}
	for _, p := range s.DisabledPlatforms {
		f.DisabledPlatforms = append(f.DisabledPlatforms, string(p))
	}
	return f
}
