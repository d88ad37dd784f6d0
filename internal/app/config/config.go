package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Link     LinkConfig     `yaml:"link"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Unlock   UnlockConfig   `yaml:"unlock"`
	Feedback FeedbackConfig `yaml:"feedback"`
	Contact  ContactConfig  `yaml:"contact"`
	Audit    AuditConfig    `yaml:"audit"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LinkConfig drives the broker connection lifecycle and the outbound queue.
type LinkConfig struct {
	Topic         string        `yaml:"topic"`
	Primary       string        `yaml:"primary"`
	Fallback      string        `yaml:"fallback"`
	ClientID      string        `yaml:"client_id"`
	KeepAlive     time.Duration `yaml:"keep_alive"`
	Backoff       time.Duration `yaml:"backoff"`
	RxInterval    time.Duration `yaml:"rx_interval"`
	TxInterval    time.Duration `yaml:"tx_interval"`
	QueueCapacity int           `yaml:"queue_capacity"`
}

type ScannerConfig struct {
	Interval        time.Duration     `yaml:"interval"`
	DebounceSamples int               `yaml:"debounce_samples"`
	DebounceDelay   time.Duration     `yaml:"debounce_delay"`
	Whitelist       map[string]string `yaml:"whitelist"`
	AllowPrefixes   []string          `yaml:"allow_prefixes"`
}

type UnlockConfig struct {
	PulseDuration  time.Duration `yaml:"pulse_duration"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
}

type FeedbackConfig struct {
	LedCount   int     `yaml:"led_count"`
	Brightness float64 `yaml:"brightness"`
	ColorOrder string  `yaml:"color_order"`
}

type ContactConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

type AuditConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Link.Topic == "" {
		c.Link.Topic = "1404TOPIC"
	}
	if c.Link.ClientID == "" {
		c.Link.ClientID = "esp32_security_box"
	}
	if c.Link.KeepAlive == 0 {
		c.Link.KeepAlive = 30 * time.Second
	}
	if c.Link.Backoff == 0 {
		c.Link.Backoff = 900 * time.Millisecond
	}
	if c.Link.RxInterval == 0 {
		c.Link.RxInterval = 50 * time.Millisecond
	}
	if c.Link.TxInterval == 0 {
		c.Link.TxInterval = 75 * time.Millisecond
	}
	if c.Link.QueueCapacity == 0 {
		c.Link.QueueCapacity = 64
	}

	if c.Scanner.Interval == 0 {
		c.Scanner.Interval = 150 * time.Millisecond
	}
	if c.Scanner.DebounceSamples == 0 {
		c.Scanner.DebounceSamples = 2
	}
	if c.Scanner.DebounceDelay == 0 {
		c.Scanner.DebounceDelay = 10 * time.Millisecond
	}

	if c.Unlock.PulseDuration == 0 {
		c.Unlock.PulseDuration = 5 * time.Second
	}
	if c.Unlock.ConfirmTimeout == 0 {
		c.Unlock.ConfirmTimeout = 1200 * time.Millisecond
	}

	if c.Feedback.LedCount == 0 {
		c.Feedback.LedCount = 50
	}
	if c.Feedback.Brightness == 0 {
		c.Feedback.Brightness = 0.15
	}
	if c.Feedback.ColorOrder == "" {
		c.Feedback.ColorOrder = "RGB"
	}

	if c.Contact.Debounce == 0 {
		c.Contact.Debounce = 30 * time.Millisecond
	}

	if c.Audit.Table == "" {
		c.Audit.Table = "access_events"
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
}

func (c *Config) Validate() error {
	if c.Link.Primary == "" {
		return fmt.Errorf("link.primary is required")
	}
	if c.Link.QueueCapacity <= 0 {
		return fmt.Errorf("link.queue_capacity must be > 0")
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("scanner.interval must be > 0")
	}
	if c.Scanner.DebounceSamples < 1 || c.Scanner.DebounceSamples > 3 {
		return fmt.Errorf("scanner.debounce_samples must be 1..3")
	}
	if c.Unlock.PulseDuration <= 0 {
		return fmt.Errorf("unlock.pulse_duration must be > 0")
	}
	if c.Feedback.Brightness < 0 || c.Feedback.Brightness > 1 {
		return fmt.Errorf("feedback.brightness must be within 0..1")
	}
	return nil
}
