package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	v1 "github.com/cb2cbz/cb2cbz/apis/v1"
	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// ParseConfig parses a YAML or JSON config file and validates it. Unknown fields are rejected.
func ParseConfig(data []byte) (v1.ConvertConfig, error) {
	var cfg v1.ConvertConfig
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return v1.ConvertConfig{}, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	cfg = NormalizeConfig(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return v1.ConvertConfig{}, err
	}

	return cfg, nil
}

// ValidateConfig checks cfg against its validation tags and the format specific quality range.
// The image format is checked in canonical form, so aliases and any case are accepted.
func ValidateConfig(cfg v1.ConvertConfig) error {
	cfg = NormalizeConfig(cfg)
	if err := defaultValidator.Struct(cfg); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	if cfg.Image.Quality != nil && cfg.Image.Format == string(engine.ImageFormatPNG) && *cfg.Image.Quality > 9 {
		return fmt.Errorf("failed to validate config: png quality must be between 0 and 9, got %d", *cfg.Image.Quality)
	}

	return nil
}

// LoadConfig reads and parses the config file at path.
func LoadConfig(fsys afero.Fs, path string) (v1.ConvertConfig, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return v1.ConvertConfig{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return v1.ConvertConfig{}, fmt.Errorf("invalid config file '%s': %w", path, err)
	}

	return cfg, nil
}

// LoadDefaultConfig loads the config at DefaultConfigPath. A missing file is not an
// error and yields an empty config.
func LoadDefaultConfig(fsys afero.Fs) (v1.ConvertConfig, bool, error) {
	path := DefaultConfigPath()
	if path == "" {
		return v1.ConvertConfig{}, false, nil
	}

	if _, err := fsys.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v1.ConvertConfig{}, false, nil
		}
		return v1.ConvertConfig{}, false, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}

	cfg, err := LoadConfig(fsys, path)
	if err != nil {
		return v1.ConvertConfig{}, false, err
	}
	return cfg, true, nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/cb2cbz/config.yaml, or the platform
// equivalent. It returns "" when no config directory can be determined.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cb2cbz", "config.yaml")
}
