package initcmd

import (
	"fmt"
	"slices"
	"strings"
)

// Preset is a named selection of the default targets.
type Preset struct {
	Name        string
	Description string
	Targets     []string
}

// AllPresets returns all available presets.
func AllPresets() []Preset {
	return []Preset{
		{
			Name:        "minimal",
			Description: "Manifest and changelog only",
			Targets:     []string{"manifest", "changelog"},
		},
		{
			Name:        "app",
			Description: "Single app with Dart constants, build metadata and badge",
			Targets:     []string{"manifest", "app-config", "build-info", "readme-badge", "changelog"},
		},
		{
			Name:        "monorepo",
			Description: "Every default target, including the shared package",
			Targets: []string{
				"manifest",
				"app-config",
				"shared-version",
				"shared-manifest",
				"build-info",
				"readme-badge",
				"package-json",
				"changelog",
			},
		},
	}
}

// PresetNames returns the names of all available presets.
func PresetNames() []string {
	presets := AllPresets()
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// GetPreset returns the preset with the given name, or an error if not found.
func GetPreset(name string) (*Preset, error) {
	for _, p := range AllPresets() {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
}

// Includes reports whether the preset selects the named target.
func (p *Preset) Includes(name string) bool {
	return slices.Contains(p.Targets, name)
}
