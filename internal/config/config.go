package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/LikkleOra/TrimTime/internal/models"
)

type Config struct {
	Shop struct {
		Name     string `yaml:"name"`      // display name of the barber
		ShopName string `yaml:"shop_name"` // storefront name
		// Recipient is the fixed handoff destination (WhatsApp number).
		Recipient string `yaml:"recipient"`
	} `yaml:"shop"`

	WorkingHours models.WorkingHours `yaml:"working_hours"`

	Server struct {
		Port           int `yaml:"port"`
		SessionTTLMins int `yaml:"session_ttl_minutes"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
		Key  string `yaml:"key"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Sheets struct {
		Enabled         bool   `yaml:"enabled"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"sheets"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
		IntervalHours int    `yaml:"interval_hours"`
	} `yaml:"backup"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		// ConflictCheck re-validates slot occupancy inside the store's add.
		ConflictCheck *bool `yaml:"conflict_check"`
	} `yaml:"booking"`

	ServicesPath string `yaml:"services_path"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.WorkingHours.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.WorkingHours == (models.WorkingHours{}) {
		c.WorkingHours = models.WorkingHours{Start: 9, End: 18, Interval: 30}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.SessionTTLMins <= 0 {
		c.Server.SessionTTLMins = 30
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/trimtime.db"
	}
	if c.Database.Key == "" {
		c.Database.Key = "trimtime:bookings"
	}
	if c.ServicesPath == "" {
		c.ServicesPath = "configs/services.yaml"
	}
	if c.Shop.ShopName == "" {
		c.Shop.ShopName = "TrimTime Studios"
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = "data/backups"
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 14
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = 24
	}
}

// ConflictCheckEnabled reports whether the store should re-validate slot
// occupancy at write time. Defaults to true when unset.
func (c *Config) ConflictCheckEnabled() bool {
	if c.Booking.ConflictCheck == nil {
		return true
	}
	return *c.Booking.ConflictCheck
}
