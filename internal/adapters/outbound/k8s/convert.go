package k8s

import (
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/skillcoder/replica-autoscaler/internal/logic/autoscaler"
)

func toDomainTarget(deployment *appsv1.Deployment) autoscaler.Target {
	out := autoscaler.Target{
		Name:        deployment.Name,
		Namespace:   deployment.Namespace,
		Annotations: deployment.Annotations,
		Replicas:    1,
	}

	if deployment.Spec.Replicas != nil {
		out.Replicas = *deployment.Spec.Replicas
	}

	if deployment.Spec.Selector != nil {
		out.PodSelector = metav1.FormatLabelSelector(deployment.Spec.Selector)
	}

	return out
}
