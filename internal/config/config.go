package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

const (
	DefaultWebhookPrefix = "telegram-webhook"
	DefaultListen        = ":8000"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Telegram Telegram `yaml:"telegram"`
	Queue    Queue    `yaml:"queue"`
	Logging  Logging  `yaml:"logging"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Telegram struct {
	APIBaseURL    string   `yaml:"apiBaseURL"`
	WebhookPrefix string   `yaml:"webhookPrefix"`
	FlyingDomains []string `yaml:"flyingDomains"`
	// ReplyToWebhook writes a deferred call into the webhook response instead
	// of executing it.
	ReplyToWebhook bool `yaml:"replyToWebhook"`
	// StateBackend is redis, memcached or memory.
	StateBackend string        `yaml:"stateBackend"`
	StateTTL     time.Duration `yaml:"stateTTL"`
}

type Queue struct {
	URL     string `yaml:"url"`
	Workers int    `yaml:"workers"`
}

type Logging struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"addSource"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Telegram.WebhookPrefix == "" {
		c.Telegram.WebhookPrefix = DefaultWebhookPrefix
	}
	if c.Telegram.StateBackend == "" {
		if c.Server.RedisAddr != "" {
			c.Telegram.StateBackend = "redis"
		} else {
			c.Telegram.StateBackend = "memory"
		}
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 4
	}
}

func (c *Config) Validate() error {
	if len(c.Telegram.FlyingDomains) == 0 {
		return errors.New("telegram.flyingDomains must list at least one domain")
	}
	switch c.Telegram.StateBackend {
	case "redis":
		if c.Server.RedisAddr == "" {
			return errors.New("telegram.stateBackend is redis but server.redisAddr is empty")
		}
	case "memcached":
		if c.Server.MemcachedAddr == "" {
			return errors.New("telegram.stateBackend is memcached but server.memcachedAddr is empty")
		}
	case "memory":
	default:
		return errors.Errorf("unknown telegram.stateBackend: %s", c.Telegram.StateBackend)
	}
	return nil
}
