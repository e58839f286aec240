// Package config loads testscope settings from the workspace.
//
// Precedence, highest first: command-line flags (applied by the caller),
// process environment, the workspace .env file, .testscope.yaml, defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LegacyCodeHQ/testscope/runconfig"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the optional settings file at the workspace root.
	FileName = ".testscope.yaml"
	envFile  = ".env"

	EnvBuildSystem  = "TESTSCOPE_BUILD_SYSTEM"
	EnvDefaultFlags = "TESTSCOPE_DEFAULT_FLAGS"
	EnvColor        = "TESTSCOPE_COLOR"
)

// Config holds settings shared by all commands.
type Config struct {
	BuildSystem  string   `yaml:"build_system"`
	DefaultFlags []string `yaml:"default_flags"`
	Color        *bool    `yaml:"color"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{BuildSystem: runconfig.DefaultBuildSystem}
}

// Load reads settings for the workspace at root.
func Load(root string) (*Config, error) {
	cfg := New()

	if err := cfg.loadFile(filepath.Join(root, FileName)); err != nil {
		return nil, err
	}

	env, err := readEnv(filepath.Join(root, envFile))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ColorEnabled reports whether colored output was requested, falling back
// to fallback when unset.
func (c *Config) ColorEnabled(fallback bool) bool {
	if c.Color == nil {
		return fallback
	}
	return *c.Color
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if c.BuildSystem == "" {
		c.BuildSystem = runconfig.DefaultBuildSystem
	}
	return nil
}

// readEnv merges the .env file under the process environment.
func readEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		env = map[string]string{}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, key := range []string{EnvBuildSystem, EnvDefaultFlags, EnvColor} {
		if value := os.Getenv(key); value != "" {
			env[key] = value
		}
	}
	return env, nil
}

func (c *Config) applyEnv(env map[string]string) error {
	if value := env[EnvBuildSystem]; value != "" {
		c.BuildSystem = value
	}
	if value := env[EnvDefaultFlags]; value != "" {
		c.DefaultFlags = strings.Fields(value)
	}
	if value := env[EnvColor]; value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvColor, value, err)
		}
		c.Color = &enabled
	}
	return nil
}
