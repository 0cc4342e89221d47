package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	KubeConfig          string
	KubeMaster          string
	TargetLabelSelector string
	PrometheusURL       string

	Interval        time.Duration
	CycleTimeout    time.Duration
	ScaleUpWindow   time.Duration
	ScaleDownWindow time.Duration

	ScaleDownPercentPerPeriod int32
	ScaleDownPodsPerPeriod    int32
	ScaleDownPeriod           time.Duration

	PingerInterval time.Duration

	LogLevel    string
	LogFormat   string
	HTTPPort    string
	MetricsPort string
}

// Load reads the configuration from the environment once at startup.
// Any malformed or out-of-bounds value is fatal: the loop must not run on a
// configuration it cannot trust.
func Load() (*Config, error) {
	cfg := &Config{
		KubeConfig:          getEnvWithFallback(envKeyKubeConfig, envKeyKubeConfigFallback),
		KubeMaster:          getEnvWithFallback(envKeyKubeMaster, envKeyKubeMasterFallback),
		TargetLabelSelector: os.Getenv(envKeyTargetLabelSelector),
		PrometheusURL:       os.Getenv(envKeyPrometheusURL),
		LogLevel:            getEnvOrDefault(envKeyLogLevel, "info"),
		LogFormat:           getEnvOrDefault(envKeyLogFormat, "json"),
		HTTPPort:            getEnvOrDefault(envKeyHTTPPort, "8080"),
		MetricsPort:         getEnvOrDefault(envKeyMetricsPort, "9090"),
	}

	var err error

	cfg.Interval, err = getDuration(envKeyInterval, envDefaultInterval, envMinInterval)
	if err != nil {
		return nil, err
	}

	cfg.CycleTimeout, err = getDuration(envKeyCycleTimeout, envDefaultCycleTimeout, envMinCycleTimeout)
	if err != nil {
		return nil, err
	}

	if cfg.CycleTimeout > cfg.Interval {
		return nil, fmt.Errorf(
			"%s (%s) must not exceed %s (%s)",
			envKeyCycleTimeout, cfg.CycleTimeout,
			envKeyInterval, cfg.Interval,
		)
	}

	cfg.ScaleUpWindow, err = getDuration(envKeyScaleUpWindow, envDefaultScaleUpWindow, 0)
	if err != nil {
		return nil, err
	}

	cfg.ScaleDownWindow, err = getDuration(envKeyScaleDownWindow, envDefaultScaleDownWindow, 0)
	if err != nil {
		return nil, err
	}

	cfg.ScaleDownPeriod, err = getDuration(envKeyScaleDownPeriod, envDefaultScaleDownPeriod, envMinScaleDownPeriod)
	if err != nil {
		return nil, err
	}

	cfg.ScaleDownPercentPerPeriod, err = getInt32(
		envKeyScaleDownPercentPerPeriod,
		envDefaultScaleDownPercentPerPeriod,
		1,
		100,
	)
	if err != nil {
		return nil, err
	}

	cfg.ScaleDownPodsPerPeriod, err = getInt32(
		envKeyScaleDownPodsPerPeriod,
		envDefaultScaleDownPodsPerPeriod,
		1,
		1<<20,
	)
	if err != nil {
		return nil, err
	}

	cfg.PingerInterval, err = getDuration(envKeyPingerInterval, envDefaultPingerInterval, envMinPingerInterval)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

func getEnvWithFallback(key, fallbackKey string) string {
	value := os.Getenv(key)
	if value == "" {
		return os.Getenv(fallbackKey)
	}

	return value
}

func getDuration(key string, defaultValue, minValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if d < minValue {
		return 0, fmt.Errorf("%s must be at least %s, got %s", key, minValue, d)
	}

	return d, nil
}

func getInt32(key string, defaultValue, minValue, maxValue int32) (int32, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if int32(n) < minValue || int32(n) > maxValue {
		return 0, fmt.Errorf("%s must be in [%d, %d], got %d", key, minValue, maxValue, n)
	}

	return int32(n), nil
}
