package metricsapi

import (
	"context"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/skillcoder/replica-autoscaler/internal/logic/autoscaler"
)

type adapter struct {
	logger           *slog.Logger
	clientset        kubernetes.Interface
	metricsClientset metricsv.Interface
}

// New creates a resource MetricSource backed by the metrics.k8s.io API.
func New(
	logger *slog.Logger,
	clientset kubernetes.Interface,
	metricsClientset metricsv.Interface,
) autoscaler.MetricSource {
	return &adapter{
		logger:           logger,
		clientset:        clientset,
		metricsClientset: metricsClientset,
	}
}

var _ autoscaler.MetricSource = (*adapter)(nil)

func (a *adapter) Name() string {
	return "metrics-api"
}

// Poll returns one sample per live replica: observed usage plus the requested
// amount so the aggregator can compute utilization. Replicas the metrics API
// has not reported yet are left out, not zero-filled.
func (a *adapter) Poll(
	ctx context.Context,
	target autoscaler.Target,
	spec autoscaler.MetricSpec,
) ([]autoscaler.Sample, error) {
	resourceName, err := toResourceName(spec.Name)
	if err != nil {
		return nil, err
	}

	podList, err := a.clientset.CoreV1().Pods(target.Namespace).List(
		ctx,
		metav1.ListOptions{
			LabelSelector: target.PodSelector,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list pods: %w: %w", errUnavailable, err)
	}

	podMetricsList, err := a.metricsClientset.MetricsV1beta1().PodMetricses(target.Namespace).List(
		ctx,
		metav1.ListOptions{
			LabelSelector: target.PodSelector,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list pod metrics: %w: %w", errUnavailable, err)
	}

	usageByPod := make(map[string]usage, len(podMetricsList.Items))

	for i := range podMetricsList.Items {
		item := &podMetricsList.Items[i]

		total := 0.0
		for j := range item.Containers {
			if q, ok := item.Containers[j].Usage[resourceName]; ok {
				total += quantityValue(q, resourceName)
			}
		}

		usageByPod[item.Name] = usage{
			value:     total,
			timestamp: item.Timestamp,
		}
	}

	samples := make([]autoscaler.Sample, 0, len(podList.Items))

	for i := range podList.Items {
		pod := &podList.Items[i]

		if !isLiveReplica(pod) {
			continue
		}

		observed, ok := usageByPod[pod.Name]
		if !ok {
			a.logger.DebugContext(ctx, "replica has no metrics yet, excluded",
				"pod", pod.Name,
				"namespace", pod.Namespace,
			)

			continue
		}

		samples = append(samples, autoscaler.Sample{
			Replica:   pod.Name,
			Metric:    spec.Name,
			Timestamp: observed.timestamp.Time,
			Value:     observed.value,
			Capacity:  requestedAmount(pod, resourceName),
		})
	}

	return samples, nil
}

type usage struct {
	value     float64
	timestamp metav1.Time
}

// isLiveReplica reports whether the pod counts as a live replica: running,
// ready, and not marked for deletion.
func isLiveReplica(pod *corev1.Pod) bool {
	if pod.DeletionTimestamp != nil {
		return false
	}

	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for i := range pod.Status.Conditions {
		cond := &pod.Status.Conditions[i]
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}

	return false
}

func requestedAmount(pod *corev1.Pod, resourceName corev1.ResourceName) float64 {
	total := 0.0

	for i := range pod.Spec.Containers {
		if q, ok := pod.Spec.Containers[i].Resources.Requests[resourceName]; ok {
			total += quantityValue(q, resourceName)
		}
	}

	return total
}

// quantityValue converts a quantity to float: cores for cpu, bytes for memory.
func quantityValue(q resource.Quantity, resourceName corev1.ResourceName) float64 {
	if resourceName == corev1.ResourceCPU {
		return float64(q.MilliValue()) / 1000
	}

	return float64(q.Value())
}

func toResourceName(metric string) (corev1.ResourceName, error) {
	switch metric {
	case autoscaler.MetricCPU:
		return corev1.ResourceCPU, nil
	case autoscaler.MetricMemory:
		return corev1.ResourceMemory, nil
	}

	return "", fmt.Errorf("unsupported resource metric %q", metric)
}
