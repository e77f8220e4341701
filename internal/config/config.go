// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Mail       MailConfig       `yaml:"mail"`
	Reminder   ReminderConfig   `yaml:"reminder"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres" или "inmemory"
}

type MailConfig struct {
	Sender    string        `yaml:"sender"` // "ses" или "noop"
	FromEmail string        `yaml:"from_email"`
	FromName  string        `yaml:"from_name"`
	Region    string        `yaml:"region"`
	Timeout   time.Duration `yaml:"timeout"` // таймаут одной отправки
	TasksURL  string        `yaml:"tasks_url"`
}

type ReminderConfig struct {
	Interval      time.Duration `yaml:"interval"`       // период сканирования
	BatchSize     int           `yaml:"batch_size"`     // максимум задач за один проход
	AdvanceStatus bool          `yaml:"advance_status"` // переводить todo -> inprogress после напоминания
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yml"
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}
	defer file.Close()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Repository.Type == "" {
		c.Repository.Type = "inmemory"
	}
	if c.Mail.Sender == "" {
		c.Mail.Sender = "noop"
	}
	if c.Mail.Timeout == 0 {
		c.Mail.Timeout = 10 * time.Second
	}
	if c.Reminder.Interval == 0 {
		c.Reminder.Interval = 5 * time.Minute
	}
	if c.Reminder.BatchSize == 0 {
		c.Reminder.BatchSize = 100
	}
}

// секреты берём из окружения, а не из config.yml
func (c *Config) applyEnv() {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if from := os.Getenv("MAIL_FROM_EMAIL"); from != "" {
		c.Mail.FromEmail = from
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
