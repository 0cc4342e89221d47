// Package prometheus is the custom MetricSource: it evaluates a PromQL
// instant query against the Prometheus HTTP API and maps each returned
// series to one replica via its "pod" label.
package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skillcoder/replica-autoscaler/internal/logic/autoscaler"
)

const (
	queryPath          = "/api/v1/query"
	defaultHTTPTimeout = 10 * time.Second
	podLabel           = "pod"
)

type adapter struct {
	logger    *slog.Logger
	serverURL string
	client    *http.Client
}

// New creates a Prometheus-backed MetricSource. client may be nil; a default
// client with timeout is used then.
func New(
	logger *slog.Logger,
	serverURL string,
	client *http.Client,
) autoscaler.MetricSource {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &adapter{
		logger:    logger,
		serverURL: serverURL,
		client:    client,
	}
}

var _ autoscaler.MetricSource = (*adapter)(nil)

func (a *adapter) Name() string {
	return "prometheus"
}

func (a *adapter) Poll(
	ctx context.Context,
	target autoscaler.Target,
	spec autoscaler.MetricSpec,
) ([]autoscaler.Sample, error) {
	if spec.Query == "" {
		return nil, fmt.Errorf("empty query for metric %s", spec.Name)
	}

	u, err := url.Parse(a.serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	u.Path = queryPath

	q := u.Query()
	q.Set("query", spec.Query)
	q.Set("time", strconv.FormatInt(time.Now().Unix(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query prometheus: %w: %w", errUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prometheus status %d: %w", resp.StatusCode, errUnavailable)
	}

	var envelope instantQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode prometheus response: %w", err)
	}

	if envelope.Status != statusSuccess {
		return nil, fmt.Errorf("prometheus response status %q: %w", envelope.Status, errUnavailable)
	}

	return a.toSamples(ctx, envelope.Data.Result, spec)
}

func (a *adapter) toSamples(
	ctx context.Context,
	series []instantSeries,
	spec autoscaler.MetricSpec,
) ([]autoscaler.Sample, error) {
	samples := make([]autoscaler.Sample, 0, len(series))

	for i := range series {
		pod := series[i].Metric[podLabel]
		if pod == "" {
			a.logger.DebugContext(ctx, "series without pod label, skipping",
				"metric", spec.Name,
			)

			continue
		}

		ts, value, err := series[i].decode()
		if err != nil {
			return nil, fmt.Errorf("decode series value: %w", err)
		}

		samples = append(samples, autoscaler.Sample{
			Replica:   pod,
			Metric:    spec.Name,
			Timestamp: ts,
			Value:     value,
		})
	}

	return samples, nil
}

const statusSuccess = "success"

type instantQueryResponse struct {
	Status string           `json:"status"`
	Data   instantQueryData `json:"data"`
}

type instantQueryData struct {
	ResultType string          `json:"resultType"`
	Result     []instantSeries `json:"result"`
}

type instantSeries struct {
	Metric map[string]string `json:"metric"`
	// Value is the Prometheus pair [unix seconds, "value"].
	Value [2]any `json:"value"`
}

func (s *instantSeries) decode() (time.Time, float64, error) {
	seconds, ok := s.Value[0].(float64)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("unexpected timestamp type %T", s.Value[0])
	}

	raw, ok := s.Value[1].(string)
	if !ok {
		return time.Time{}, 0, fmt.Errorf("unexpected value type %T", s.Value[1])
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse value %q: %w", raw, err)
	}

	return time.Unix(int64(seconds), 0).UTC(), value, nil
}
