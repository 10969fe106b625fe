package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Reminder delivery modes.
const (
	DeliverLog  = "log"
	DeliverMail = "mail"
)

// StorageConfig controls where the key-value database lives.
type StorageConfig struct {
	// Path is the SQLite database file. ":memory:" keeps everything in RAM.
	Path string `mapstructure:"path" yaml:"path"`
}

// AIConfig holds settings for the task suggestion client.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`

	// MinIntervalSec is the minimum spacing between two suggestion calls.
	MinIntervalSec int    `mapstructure:"min_interval_sec" yaml:"min_interval_sec"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
}

// MailConfig holds the SMTP settings used when reminders are delivered
// by email. The password is read from the keyring, never from this file.
type MailConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	From     string `mapstructure:"from" yaml:"from"`
	To       string `mapstructure:"to" yaml:"to"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// ReminderConfig selects how fired reminders reach the user.
type ReminderConfig struct {
	Deliver string     `mapstructure:"deliver" yaml:"deliver"`
	Mail    MailConfig `mapstructure:"mail" yaml:"mail"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage   StorageConfig  `mapstructure:"storage" yaml:"storage"`
	AI        AIConfig       `mapstructure:"ai" yaml:"ai"`
	Reminders ReminderConfig `mapstructure:"reminders" yaml:"reminders"`
	Display   DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskkeeper/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultDataPath returns the default SQLite database path,
// located next to the configuration file.
func DefaultDataPath() string {
	return filepath.Join(configDir(), "taskkeeper.db")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskkeeper")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Path: DefaultDataPath(),
		},
		AI: AIConfig{
			Model:          "claude-sonnet-4-5-20250929",
			MaxTokens:      100,
			MinIntervalSec: 21,
		},
		Reminders: ReminderConfig{
			Deliver: DeliverLog,
			Mail: MailConfig{
				Port: "587",
			},
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("ai.model", defaults.AI.Model)
	v.SetDefault("ai.max_tokens", defaults.AI.MaxTokens)
	v.SetDefault("ai.min_interval_sec", defaults.AI.MinIntervalSec)
	v.SetDefault("reminders.deliver", defaults.Reminders.Deliver)
	v.SetDefault("reminders.mail.port", defaults.Reminders.Mail.Port)
	v.SetDefault("display.theme", defaults.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch cfg.Reminders.Deliver {
	case DeliverLog, DeliverMail:
	default:
		return nil, fmt.Errorf("parsing config %s: unknown reminders.deliver %q",
			path, cfg.Reminders.Deliver)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("ai", cfg.AI)
	v.Set("reminders", cfg.Reminders)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
