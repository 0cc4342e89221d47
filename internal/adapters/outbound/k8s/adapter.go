package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"

	"github.com/skillcoder/replica-autoscaler/internal/logic/autoscaler"
)

type adapter struct {
	logger    *slog.Logger
	clientset kubernetes.Interface
}

// New creates a new K8s adapter actuating Deployments through the Scale
// subresource.
func New(
	logger *slog.Logger,
	clientset kubernetes.Interface,
) autoscaler.ScaleRepository {
	return &adapter{
		logger:    logger,
		clientset: clientset,
	}
}

var _ autoscaler.ScaleRepository = (*adapter)(nil)

func (a *adapter) ListTargetsQuery(
	ctx context.Context,
	labelSelector string,
) ([]autoscaler.Target, error) {
	deploymentList, err := a.clientset.AppsV1().Deployments("").List(
		ctx,
		metav1.ListOptions{
			LabelSelector: labelSelector,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}

	targets := make([]autoscaler.Target, 0, len(deploymentList.Items))
	for i := range deploymentList.Items {
		targets = append(targets, toDomainTarget(&deploymentList.Items[i]))
	}

	return targets, nil
}

// ApplyScaleCommand writes the desired replica count through the Scale
// subresource. The update carries the resourceVersion from the preceding
// read, so a concurrent external change (e.g. manual kubectl scale) fails
// with Conflict; one re-read retry is attempted before surfacing it.
func (a *adapter) ApplyScaleCommand(
	ctx context.Context,
	namespace,
	name string,
	replicas int32,
) error {
	const maxAttempts = 2

	for attempt := 1; ; attempt++ {
		done, err := a.tryScale(ctx, namespace, name, replicas)
		if err != nil {
			if apierrors.IsConflict(err) && attempt < maxAttempts {
				a.logger.DebugContext(ctx, "scale update conflict, re-reading",
					"namespace", namespace,
					"name", name,
					"attempt", attempt,
				)

				continue
			}

			return classifyScaleError(err)
		}

		if !done {
			a.logger.DebugContext(ctx, "scale already at desired count",
				"namespace", namespace,
				"name", name,
				"replicas", replicas,
			)
		}

		return nil
	}
}

// tryScale performs one read-then-conditional-write cycle.
// Returns done=false when the desired count was already set (no-op).
func (a *adapter) tryScale(
	ctx context.Context,
	namespace,
	name string,
	replicas int32,
) (bool, error) {
	scale, err := a.clientset.AppsV1().Deployments(namespace).GetScale(
		ctx,
		name,
		metav1.GetOptions{},
	)
	if err != nil {
		return false, fmt.Errorf("get scale: %w", err)
	}

	if scale.Spec.Replicas == replicas {
		return false, nil
	}

	scale.Spec.Replicas = replicas

	_, err = a.clientset.AppsV1().Deployments(namespace).UpdateScale(
		ctx,
		name,
		scale,
		metav1.UpdateOptions{},
	)
	if err != nil {
		return false, fmt.Errorf("update scale: %w", err)
	}

	return true, nil
}

func classifyScaleError(err error) error {
	switch {
	case apierrors.IsConflict(err):
		return fmt.Errorf("apply scale: %w", errConflict)
	case apierrors.IsNotFound(err):
		return fmt.Errorf("apply scale: %w", errTargetNotFound)
	case apierrors.IsTooManyRequests(err):
		return fmt.Errorf("apply scale: %w", errTooManyRequests)
	}

	return fmt.Errorf("apply scale: %w", err)
}

func (a *adapter) SetAnnotationCommand(
	ctx context.Context,
	namespace,
	name string,
	key,
	value string,
) error {
	annotations := map[string]any{key: value}
	if value == "" {
		annotations[key] = nil
	}

	patch := map[string]any{
		"metadata": map[string]any{
			"annotations": annotations,
		},
	}

	patchBytes, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal annotation patch: %w", err)
	}

	_, err = a.clientset.AppsV1().Deployments(namespace).Patch(
		ctx,
		name,
		types.MergePatchType,
		patchBytes,
		metav1.PatchOptions{},
	)
	if err != nil {
		return fmt.Errorf("patch deployment annotation: %w", err)
	}

	return nil
}
