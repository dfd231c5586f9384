package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (PULSAR_BENCH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("topic", os.Getenv("PULSAR_BENCH_TOPIC"), &cfg.Topic)
	s.setString("subscription", os.Getenv("PULSAR_BENCH_SUBSCRIPTION"), &cfg.Subscription)
	s.setString("metrics-addr", os.Getenv("PULSAR_BENCH_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("PULSAR_BENCH_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("count", os.Getenv("PULSAR_BENCH_MESSAGE_COUNT"), &cfg.MessageCount); err != nil {
		return err
	}
	if err := s.setIntFromString("rate", os.Getenv("PULSAR_BENCH_PUBLISH_RATE"), &cfg.PublishRate); err != nil {
		return err
	}
	if err := s.setIntFromString("payload-bytes", os.Getenv("PULSAR_BENCH_PAYLOAD_BYTES"), &cfg.PayloadBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("batch-max-messages", os.Getenv("PULSAR_BENCH_BATCH_MAX_MESSAGES"), &cfg.MaxNumMessages); err != nil {
		return err
	}
	if err := s.setIntFromString("batch-max-bytes", os.Getenv("PULSAR_BENCH_BATCH_MAX_BYTES"), &cfg.MaxNumBytes); err != nil {
		return err
	}

	if err := s.setDuration("batch-timeout", os.Getenv("PULSAR_BENCH_BATCH_TIMEOUT"), &cfg.BatchTimeout); err != nil {
		return err
	}
	if err := s.setDuration("ack-timeout", os.Getenv("PULSAR_BENCH_ACK_TIMEOUT"), &cfg.AckTimeout); err != nil {
		return err
	}
	if err := s.setDuration("duration", os.Getenv("PULSAR_BENCH_DURATION"), &cfg.Duration); err != nil {
		return err
	}
	if err := s.setDuration("report-interval", os.Getenv("PULSAR_BENCH_REPORT_INTERVAL"), &cfg.ReportInterval); err != nil {
		return err
	}

	if err := s.setFloatFromString("ack-ratio", os.Getenv("PULSAR_BENCH_ACK_RATIO"), &cfg.AckRatio); err != nil {
		return err
	}

	s.setBoolFromString("async", os.Getenv("PULSAR_BENCH_ASYNC"), &cfg.Async)

	return nil
}
