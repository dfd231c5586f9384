package cliconfig

import (
	"fmt"
	"strconv"
	"time"
)

// Config holds CLI configuration for pulsar-bench.
type Config struct {
	Topic        string
	Subscription string

	MessageCount int
	PublishRate  int
	PayloadBytes int

	MaxNumMessages int
	MaxNumBytes    int
	BatchTimeout   time.Duration

	AckTimeout time.Duration
	AckRatio   float64
	Async      bool
	Duration   time.Duration

	MetricsAddr    string
	ReportInterval time.Duration
	LogLevel       string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Topic:          "bench",
		Subscription:   "load",
		MessageCount:   10000,
		PublishRate:    0, // unthrottled
		PayloadBytes:   100,
		MaxNumMessages: 100,
		MaxNumBytes:    0, // disabled
		BatchTimeout:   100 * time.Millisecond,
		AckTimeout:     30 * time.Second,
		AckRatio:       1.0,
		ReportInterval: 5 * time.Second,
		LogLevel:       "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if c.Subscription == "" {
		return fmt.Errorf("subscription is required")
	}
	if c.MessageCount < 0 {
		return fmt.Errorf("message count must not be negative")
	}
	if c.PublishRate < 0 {
		return fmt.Errorf("publish rate must not be negative")
	}
	if c.PayloadBytes <= 0 {
		return fmt.Errorf("payload bytes must be positive")
	}
	if c.MaxNumMessages <= 0 && c.MaxNumBytes <= 0 && c.BatchTimeout <= 0 {
		return fmt.Errorf("at least one batch bound must be positive")
	}
	if c.AckTimeout < 0 {
		return fmt.Errorf("ack timeout must not be negative")
	}
	if c.AckRatio < 0 || c.AckRatio > 1 {
		return fmt.Errorf("ack ratio must be between 0 and 1")
	}
	if c.AckRatio < 1 && c.Duration <= 0 {
		return fmt.Errorf("runs with ack ratio below 1 redeliver forever, set a duration")
	}
	if c.MessageCount == 0 && c.Duration <= 0 {
		return fmt.Errorf("either message count or duration must bound the run")
	}
	if c.ReportInterval <= 0 {
		return fmt.Errorf("report interval must be positive")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
// A pointer distinguishes an explicit zero (meaningful for several bounds)
// from an absent key.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloat sets a float64 value from a pointer if not nil and flag not changed.
func (s *configSetter) setFloat(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// Used for environment variables that come as strings; out-of-range values
// are left for Validate to report.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
