package cliconfig

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"PULSAR_BENCH_TOPIC":         "env-topic",
				"PULSAR_BENCH_MESSAGE_COUNT": "500",
				"PULSAR_BENCH_BATCH_TIMEOUT": "250ms",
				"PULSAR_BENCH_ACK_RATIO":     "0.9",
				"PULSAR_BENCH_ASYNC":         "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Topic:        "env-topic",
				MessageCount: 500,
				BatchTimeout: 250 * time.Millisecond,
				AckRatio:     0.9,
				Async:        true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"PULSAR_BENCH_TOPIC":        "env-topic",
				"PULSAR_BENCH_SUBSCRIPTION": "env-sub",
			},
			changed: map[string]bool{"topic": true},
			initial: Config{
				Topic: "flag-topic",
			},
			expected: Config{
				Topic:        "flag-topic",
				Subscription: "env-sub",
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"PULSAR_BENCH_BATCH_TIMEOUT": "not-a-duration",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"PULSAR_BENCH_MESSAGE_COUNT": "not-a-number",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "returns error for invalid float",
			envVars: map[string]string{
				"PULSAR_BENCH_ACK_RATIO": "not-a-float",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "explicit zero applies",
			envVars: map[string]string{
				"PULSAR_BENCH_BATCH_MAX_MESSAGES": "0",
				"PULSAR_BENCH_ACK_RATIO":          "0",
			},
			changed: map[string]bool{},
			initial: Config{
				MaxNumMessages: 100,
				AckRatio:       1.0,
			},
			expected: Config{
				MaxNumMessages: 0,
				AckRatio:       0,
			},
			wantErr: false,
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"PULSAR_BENCH_ASYNC": "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Async: true,
			},
			wantErr: false,
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"PULSAR_BENCH_ASYNC": "false",
			},
			changed: map[string]bool{},
			initial: Config{Async: true},
			expected: Config{
				Async: false,
			},
			wantErr: false,
		},
		{
			name: "handles all field types correctly",
			envVars: map[string]string{
				"PULSAR_BENCH_TOPIC":              "orders",
				"PULSAR_BENCH_SUBSCRIPTION":       "billing",
				"PULSAR_BENCH_MESSAGE_COUNT":      "1000",
				"PULSAR_BENCH_PUBLISH_RATE":       "200",
				"PULSAR_BENCH_PAYLOAD_BYTES":      "512",
				"PULSAR_BENCH_BATCH_MAX_MESSAGES": "50",
				"PULSAR_BENCH_BATCH_MAX_BYTES":    "4096",
				"PULSAR_BENCH_BATCH_TIMEOUT":      "1s",
				"PULSAR_BENCH_ACK_TIMEOUT":        "2m",
				"PULSAR_BENCH_ACK_RATIO":          "0.5",
				"PULSAR_BENCH_ASYNC":              "true",
				"PULSAR_BENCH_DURATION":           "3m",
				"PULSAR_BENCH_METRICS_ADDR":       ":9091",
				"PULSAR_BENCH_REPORT_INTERVAL":    "10s",
				"PULSAR_BENCH_LOG_LEVEL":          "debug",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Topic:          "orders",
				Subscription:   "billing",
				MessageCount:   1000,
				PublishRate:    200,
				PayloadBytes:   512,
				MaxNumMessages: 50,
				MaxNumBytes:    4096,
				BatchTimeout:   time.Second,
				AckTimeout:     2 * time.Minute,
				AckRatio:       0.5,
				Async:          true,
				Duration:       3 * time.Minute,
				MetricsAddr:    ":9091",
				ReportInterval: 10 * time.Second,
				LogLevel:       "debug",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			// Clean up after test
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	// Setup file config
	fileConf := FileConfig{
		Topic:        "file-topic",
		Subscription: "file-sub",
		AckRatio:     floatPtr(0.5),
	}

	// Setup env vars
	os.Setenv("PULSAR_BENCH_TOPIC", "env-topic")
	os.Setenv("PULSAR_BENCH_SUBSCRIPTION", "env-sub")
	os.Setenv("PULSAR_BENCH_PAYLOAD_BYTES", "256")
	defer func() {
		os.Unsetenv("PULSAR_BENCH_TOPIC")
		os.Unsetenv("PULSAR_BENCH_SUBSCRIPTION")
		os.Unsetenv("PULSAR_BENCH_PAYLOAD_BYTES")
	}()

	// Simulate CLI flags
	changed := map[string]bool{
		"topic": true, // CLI flag was set for topic
	}

	cfg := Config{
		Topic: "cli-topic", // This should remain (CLI wins)
	}

	// Apply file config
	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}

	// Apply env config
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	// Verify precedence: CLI > Env > File
	if cfg.Topic != "cli-topic" {
		t.Errorf("Topic = %v, want cli-topic (CLI should win)", cfg.Topic)
	}
	if cfg.Subscription != "env-sub" {
		t.Errorf("Subscription = %v, want env-sub (env should override file)", cfg.Subscription)
	}
	if cfg.PayloadBytes != 256 {
		t.Errorf("PayloadBytes = %v, want 256 (env should set)", cfg.PayloadBytes)
	}
	if cfg.AckRatio != 0.5 {
		t.Errorf("AckRatio = %v, want 0.5 (file should set)", cfg.AckRatio)
	}
}
