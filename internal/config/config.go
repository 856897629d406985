package config

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

// StorageConfig selects the queue store backend.
type StorageConfig struct {
	Driver   string         `yaml:"driver"` // file | postgres
	File     FileConfig     `yaml:"file"`
	Database DatabaseConfig `yaml:"database"`
}

type RabbitConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

type WhatsAppConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"token"`
	AdminPhone string `yaml:"admin_phone"`
}

type NotificationsConfig struct {
	DispatchTimeoutSeconds int            `yaml:"dispatch_timeout_seconds"`
	Email                  EmailConfig    `yaml:"email"`
	WhatsApp               WhatsAppConfig `yaml:"whatsapp"`
}

type QueueConfig struct {
	Timezone         string `yaml:"timezone"`           // IANA name, establishment local time
	MissingCreatedAt string `yaml:"missing_created_at"` // now | reject
}

type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Storage       StorageConfig       `yaml:"storage"`
	Rabbit        RabbitConfig        `yaml:"rabbitmq"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Queue         QueueConfig         `yaml:"queue"`
}

func defaults() Config {
	var c Config
	c.HTTP.Port = 3000
	c.Storage.Driver = "file"
	c.Storage.File.Path = "data/queue.json"
	c.Storage.Database.Port = 5432
	c.Storage.Database.SSLMode = "disable"
	c.Storage.Database.MaxConns = 10
	c.Rabbit.Port = 5672
	c.Rabbit.VHost = "/"
	c.Notifications.DispatchTimeoutSeconds = 10
	c.Notifications.Email.Port = 587
	c.Queue.MissingCreatedAt = "now"
	return c
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case "file":
		if c.Storage.File.Path == "" {
			return fmt.Errorf("invalid config: storage.file.path is required")
		}
	case "postgres":
		d := c.Storage.Database
		if d.Host == "" || d.User == "" || d.Database == "" {
			return fmt.Errorf("invalid config: storage.database is incomplete")
		}
	default:
		return fmt.Errorf("invalid config: unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Queue.MissingCreatedAt {
	case "now", "reject":
	default:
		return fmt.Errorf("invalid config: queue.missing_created_at must be now or reject")
	}
	if c.Rabbit.Enabled && c.Rabbit.Host == "" {
		return fmt.Errorf("invalid config: rabbitmq.host is required when enabled")
	}
	return nil
}

// FindConfig probes the usual locations when --config is not given.
func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
