package runconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	storeDir  = ".testscope"
	storeFile = "configurations.yaml"
)

// StorePath returns where configurations for workspaceRoot are kept.
func StorePath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, storeDir, storeFile)
}

// Store is a YAML file of saved configurations.
type Store struct {
	path           string
	configurations []*Configuration
}

type storeDocument struct {
	Configurations []*Configuration `yaml:"configurations"`
}

// LoadStore reads the store at path. A missing file is an empty store.
func LoadStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc storeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	s.configurations = doc.Configurations
	return s, nil
}

// Configurations returns the stored configurations in insertion order.
func (s *Store) Configurations() []*Configuration {
	return s.configurations
}

// Add appends cfg. It is not written until Save.
func (s *Store) Add(cfg *Configuration) {
	s.configurations = append(s.configurations, cfg)
}

// Save writes the store, creating its directory if needed.
func (s *Store) Save() error {
	data, err := yaml.Marshal(storeDocument{Configurations: s.configurations})
	if err != nil {
		return fmt.Errorf("failed to encode configurations: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(s.path), err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}
