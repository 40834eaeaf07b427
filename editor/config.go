package editor

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ferrostack/pagemend/proposal"
)

// Config holds all editor configuration.
type Config struct {
	DBPath         string          `yaml:"db_path"`
	Proposal       proposal.Config `yaml:"proposal"`
	Cache          CacheConfig     `yaml:"cache"`
	AllowedWidgets []string        `yaml:"allowed_widgets"`
	MaxTextLen     int             `yaml:"max_text_len"`
}

// CacheConfig selects the render-cache invalidation target. Both may
// be empty (no cache), or both set (fan-out).
type CacheConfig struct {
	RedisAddr  string `yaml:"redis_addr"`
	KeyPrefix  string `yaml:"key_prefix"`
	WebhookURL string `yaml:"webhook_url"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "pagemend.db"
	}
	if c.MaxTextLen <= 0 {
		c.MaxTextLen = 500
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.defaults()
	return cfg, nil
}
