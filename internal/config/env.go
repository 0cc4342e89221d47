package config

import "time"

// Env key constants. All controller configuration env vars use AUTOSCALER_ prefix;
// duration values support explicit units (e.g. 5m, 40s, 2h).

// Path to kubeconfig file. If unset, KUBECONFIG is used as fallback.
const envKeyKubeConfig = "AUTOSCALER_KUBECONFIG"

// Kubernetes API server URL. If unset, KUBERNETES_MASTER is used as fallback.
const envKeyKubeMaster = "AUTOSCALER_KUBE_MASTER"

// Log level: debug, info, warn, error.
const envKeyLogLevel = "AUTOSCALER_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "AUTOSCALER_LOG_FORMAT"

// Port for health/readiness HTTP server.
const envKeyHTTPPort = "AUTOSCALER_HTTP_PORT"

// Port for Prometheus metrics (GET /metrics).
const envKeyMetricsPort = "AUTOSCALER_METRICS_PORT"

// Label selector to discover managed Deployments
// (e.g. autoscaler.beta.k8s.skillcoder.com/enabled=true).
const envKeyTargetLabelSelector = "AUTOSCALER_TARGET_LABEL_SELECTOR"

// Base URL of a Prometheus server for custom metric queries.
// When unset, targets with a metric-query annotation are rejected.
const envKeyPrometheusURL = "AUTOSCALER_PROMETHEUS_URL"

// Evaluation interval. Units: s, m, h (e.g. 15s, 1m).
const (
	envKeyInterval     = "AUTOSCALER_INTERVAL"
	envMinInterval     = 5 * time.Second
	envDefaultInterval = 15 * time.Second
)

// Per-target evaluation cycle timeout. Must fit within the interval.
const (
	envKeyCycleTimeout     = "AUTOSCALER_CYCLE_TIMEOUT"
	envMinCycleTimeout     = time.Second
	envDefaultCycleTimeout = 10 * time.Second
)

// Scale-up stabilization window; 0 scales up immediately.
const (
	envKeyScaleUpWindow     = "AUTOSCALER_SCALE_UP_WINDOW"
	envDefaultScaleUpWindow = 0 * time.Second
)

// Scale-down stabilization window.
const (
	envKeyScaleDownWindow     = "AUTOSCALER_SCALE_DOWN_WINDOW"
	envDefaultScaleDownWindow = 300 * time.Second
)

// Max percent of replicas removable per scale-down period (1-100).
const (
	envKeyScaleDownPercentPerPeriod     = "AUTOSCALER_SCALE_DOWN_PERCENT_PER_PERIOD"
	envDefaultScaleDownPercentPerPeriod = 100
)

// Max absolute replicas removable per scale-down period.
const (
	envKeyScaleDownPodsPerPeriod     = "AUTOSCALER_SCALE_DOWN_PODS_PER_PERIOD"
	envDefaultScaleDownPodsPerPeriod = 4
)

// Scale-down rate-limit period. Units: s, m, h.
const (
	envKeyScaleDownPeriod     = "AUTOSCALER_SCALE_DOWN_PERIOD"
	envMinScaleDownPeriod     = time.Second
	envDefaultScaleDownPeriod = 60 * time.Second
)

// Pinger check interval. Units: s, m, h (e.g. 10s, 1m).
const (
	envKeyPingerInterval     = "AUTOSCALER_PINGER_INTERVAL"
	envMinPingerInterval     = time.Second
	envDefaultPingerInterval = 10 * time.Second
)

// Standard k8s env keys used as fallback when AUTOSCALER_* are unset.
const (
	envKeyKubeConfigFallback = "KUBECONFIG"
	envKeyKubeMasterFallback = "KUBERNETES_MASTER"
)
