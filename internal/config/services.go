package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LikkleOra/TrimTime/internal/models"
)

// ServicesConfig is the root configuration for services.yaml, the static
// service catalog. Loaded once at startup and never mutated.
type ServicesConfig struct {
	Services []models.Service `yaml:"services"`
}

// LoadServicesConfig loads and validates the service catalog from YAML.
func LoadServicesConfig(path string) (*ServicesConfig, error) {
	if path == "" {
		path = "configs/services.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read services config: %w", err)
	}

	var cfg ServicesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse services config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate services config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the catalog for errors.
func (c *ServicesConfig) Validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("no services defined")
	}

	ids := make(map[string]bool)
	for i, svc := range c.Services {
		if svc.ID == "" {
			return fmt.Errorf("service[%d]: id is required", i)
		}
		if ids[svc.ID] {
			return fmt.Errorf("service[%d]: duplicate id %q", i, svc.ID)
		}
		ids[svc.ID] = true

		if svc.Name == "" {
			return fmt.Errorf("service[%d]: name is required", i)
		}
		if svc.Price <= 0 {
			return fmt.Errorf("service[%d]: price must be positive, got %v", i, svc.Price)
		}
		if svc.Duration <= 0 {
			return fmt.Errorf("service[%d]: duration must be positive, got %d", i, svc.Duration)
		}
	}
	return nil
}

// ByID returns the service with the given id, or nil.
func (c *ServicesConfig) ByID(id string) *models.Service {
	for i := range c.Services {
		if c.Services[i].ID == id {
			return &c.Services[i]
		}
	}
	return nil
}

// String returns a summary of the catalog.
func (c *ServicesConfig) String() string {
	return fmt.Sprintf("ServicesConfig: %d services", len(c.Services))
}
