// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	AncestorAllParents  = "all-parents"
	AncestorFirstParent = "first-parent"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Compression struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Level   int  `json:"level" yaml:"level"`       // 1=fastest, 4=best
	MinSize int  `json:"min_size" yaml:"min_size"` // frames below this stay raw
}

type Merge struct {
	Ancestor string `json:"ancestor" yaml:"ancestor"` // all-parents, first-parent
}

type Settings struct {
	LogLevel    string      `json:"log_level" yaml:"log_level"` // debug, info, warn, error
	Color       string      `json:"color" yaml:"color"`         // auto, always, never
	CacheSize   int         `json:"cache_size" yaml:"cache_size"`
	Compression Compression `json:"compression" yaml:"compression"`
	Merge       Merge       `json:"merge" yaml:"merge"`
}

func Defaults() *Settings {
	return &Settings{
		LogLevel:  "warn",
		Color:     ColorAuto,
		CacheSize: 256,
		Compression: Compression{
			Enabled: true,
			Level:   2,
			MinSize: 512,
		},
		Merge: Merge{Ancestor: AncestorAllParents},
	}
}

// UserConfigPath returns $XDG_CONFIG_HOME/twig/config.yml, falling back to
// ~/.config. Empty when no home directory can be determined.
func UserConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "twig", "config.yml")
}

// Load layers defaults, the user YAML file, the repository JSON file and the
// TWIG_LOG_LEVEL environment variable, later layers winning. Missing files
// are not an error.
func Load(paths Paths) (*Settings, error) {
	s := Defaults()

	if p := UserConfigPath(); p != "" {
		if err := mergeYAML(s, p); err != nil {
			return nil, err
		}
	}
	if paths.Config != "" {
		if err := mergeJSON(s, paths.Config); err != nil {
			return nil, err
		}
	}
	if lvl := os.Getenv("TWIG_LOG_LEVEL"); lvl != "" {
		s.LogLevel = lvl
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Unmarshalling into the already-populated struct keeps fields the file
// does not mention.
func mergeYAML(s *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading user config: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parsing user config %s: %w", path, err)
	}
	return nil
}

func mergeJSON(s *Settings, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening repository config: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("parsing repository config %s: %w", path, err)
	}
	return nil
}

func (s *Settings) Validate() error {
	switch s.Merge.Ancestor {
	case AncestorAllParents, AncestorFirstParent:
	default:
		return fmt.Errorf("invalid merge.ancestor %q", s.Merge.Ancestor)
	}
	switch s.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color %q", s.Color)
	}
	if s.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", s.CacheSize)
	}
	if s.Compression.Level < 1 || s.Compression.Level > 4 {
		return fmt.Errorf("compression.level must be between 1 and 4, got %d", s.Compression.Level)
	}
	return nil
}
