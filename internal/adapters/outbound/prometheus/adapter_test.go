package prometheus_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/replica-autoscaler/internal/adapters/outbound/prometheus"
	"github.com/skillcoder/replica-autoscaler/internal/logic/autoscaler"
)

func queryTarget() autoscaler.Target {
	return autoscaler.Target{
		Name:        "web",
		Namespace:   "default",
		Replicas:    2,
		PodSelector: "app=web",
	}
}

func querySpec() autoscaler.MetricSpec {
	return autoscaler.MetricSpec{
		Name:        autoscaler.MetricCustom,
		Query:       `sum by (pod) (rate(http_requests_total[1m]))`,
		TargetValue: 200,
		Aggregation: autoscaler.AggregationValue,
	}
}

func TestAdapter_Poll(t *testing.T) {
	t.Parallel()

	t.Run("maps vector series to replicas via pod label", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v1/query", r.URL.Path)
			require.Equal(t, querySpec().Query, r.URL.Query().Get("query"))
			require.NotEmpty(t, r.URL.Query().Get("time"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": "success",
				"data": {
					"resultType": "vector",
					"result": [
						{"metric": {"pod": "web-a"}, "value": [1772366400, "250.5"]},
						{"metric": {"pod": "web-b"}, "value": [1772366400, "120"]},
						{"metric": {"instance": "node-1"}, "value": [1772366400, "999"]}
					]
				}
			}`))
		}))
		defer server.Close()

		source := prometheus.New(slog.Default(), server.URL, server.Client())

		samples, err := source.Poll(context.Background(), queryTarget(), querySpec())
		require.NoError(t, err)

		// the series without a pod label is dropped
		require.Len(t, samples, 2)
		require.Equal(t, "web-a", samples[0].Replica)
		require.InDelta(t, 250.5, samples[0].Value, 1e-9)
		require.Equal(t, time.Unix(1772366400, 0).UTC(), samples[0].Timestamp)
		require.Equal(t, "web-b", samples[1].Replica)
		require.InDelta(t, 120.0, samples[1].Value, 1e-9)
	})

	t.Run("empty result yields no samples", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"vector","result":[]}}`))
		}))
		defer server.Close()

		source := prometheus.New(slog.Default(), server.URL, server.Client())

		samples, err := source.Poll(context.Background(), queryTarget(), querySpec())
		require.NoError(t, err)
		require.Empty(t, samples)
	})

	t.Run("server error maps to unavailable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "overloaded", http.StatusInternalServerError)
		}))
		defer server.Close()

		source := prometheus.New(slog.Default(), server.URL, server.Client())

		_, err := source.Poll(context.Background(), queryTarget(), querySpec())
		require.Error(t, err)

		var unavailableErr *prometheus.UnavailableError
		require.ErrorAs(t, err, &unavailableErr)
	})

	t.Run("unreachable endpoint maps to unavailable", func(t *testing.T) {
		t.Parallel()

		source := prometheus.New(slog.Default(), "http://127.0.0.1:1", nil)

		_, err := source.Poll(context.Background(), queryTarget(), querySpec())
		require.Error(t, err)

		var unavailableErr *prometheus.UnavailableError
		require.ErrorAs(t, err, &unavailableErr)
	})

	t.Run("error response status maps to unavailable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error","data":{}}`))
		}))
		defer server.Close()

		source := prometheus.New(slog.Default(), server.URL, server.Client())

		_, err := source.Poll(context.Background(), queryTarget(), querySpec())
		require.Error(t, err)

		var unavailableErr *prometheus.UnavailableError
		require.ErrorAs(t, err, &unavailableErr)
	})

	t.Run("empty query fails fast", func(t *testing.T) {
		t.Parallel()

		source := prometheus.New(slog.Default(), "http://prometheus:9090", nil)

		spec := querySpec()
		spec.Query = ""

		_, err := source.Poll(context.Background(), queryTarget(), spec)
		require.Error(t, err)
	})
}
