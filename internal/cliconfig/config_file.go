package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and pointers for
// numerics to make TOML friendly: an absent key must not clobber a default,
// while an explicit zero (e.g. batch_max_bytes = 0) must apply.
type FileConfig struct {
	Topic          string   `toml:"topic"`
	Subscription   string   `toml:"subscription"`
	MessageCount   *int     `toml:"message_count"`
	PublishRate    *int     `toml:"publish_rate"`
	PayloadBytes   *int     `toml:"payload_bytes"`
	MaxNumMessages *int     `toml:"batch_max_messages"`
	MaxNumBytes    *int     `toml:"batch_max_bytes"`
	BatchTimeout   string   `toml:"batch_timeout"`
	AckTimeout     string   `toml:"ack_timeout"`
	AckRatio       *float64 `toml:"ack_ratio"`
	Async          *bool    `toml:"async"`
	Duration       string   `toml:"duration"`
	MetricsAddr    string   `toml:"metrics_addr"`
	ReportInterval string   `toml:"report_interval"`
	LogLevel       string   `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.pulsar-bench/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pulsar-bench", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("topic", fc.Topic, &cfg.Topic)
	s.setString("subscription", fc.Subscription, &cfg.Subscription)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setInt("count", fc.MessageCount, &cfg.MessageCount)
	s.setInt("rate", fc.PublishRate, &cfg.PublishRate)
	s.setInt("payload-bytes", fc.PayloadBytes, &cfg.PayloadBytes)
	s.setInt("batch-max-messages", fc.MaxNumMessages, &cfg.MaxNumMessages)
	s.setInt("batch-max-bytes", fc.MaxNumBytes, &cfg.MaxNumBytes)

	if err := s.setDuration("batch-timeout", fc.BatchTimeout, &cfg.BatchTimeout); err != nil {
		return err
	}
	if err := s.setDuration("ack-timeout", fc.AckTimeout, &cfg.AckTimeout); err != nil {
		return err
	}
	if err := s.setDuration("duration", fc.Duration, &cfg.Duration); err != nil {
		return err
	}
	if err := s.setDuration("report-interval", fc.ReportInterval, &cfg.ReportInterval); err != nil {
		return err
	}

	s.setFloat("ack-ratio", fc.AckRatio, &cfg.AckRatio)
	s.setBool("async", fc.Async, &cfg.Async)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
