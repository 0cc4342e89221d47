package k8s_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv1 "k8s.io/api/autoscaling/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/skillcoder/replica-autoscaler/internal/adapters/outbound/k8s"
)

func int32Ptr(v int32) *int32 { return &v }

func newDeployment(namespace, name string, replicas int32, labels map[string]string) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      name,
			Labels:    labels,
			Annotations: map[string]string{
				"autoscaler.beta.k8s.skillcoder.com/max-replicas": "10",
			},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: int32Ptr(replicas),
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{"app": name},
			},
		},
	}
}

// scaleFixture wires get/update reactors for the Scale subresource, which the
// fake object tracker does not serve on its own.
type scaleFixture struct {
	mu         sync.Mutex
	scale      *autoscalingv1.Scale
	getErr     error
	updateErrs []error
	updates    []int32
}

func (f *scaleFixture) install(clientset *fake.Clientset) {
	clientset.PrependReactor("get", "deployments",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			if action.GetSubresource() != "scale" {
				return false, nil, nil
			}

			f.mu.Lock()
			defer f.mu.Unlock()

			if f.getErr != nil {
				return true, nil, f.getErr
			}

			return true, f.scale.DeepCopy(), nil
		})

	clientset.PrependReactor("update", "deployments",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			if action.GetSubresource() != "scale" {
				return false, nil, nil
			}

			f.mu.Lock()
			defer f.mu.Unlock()

			if len(f.updateErrs) > 0 {
				err := f.updateErrs[0]
				f.updateErrs = f.updateErrs[1:]

				return true, nil, err
			}

			update, ok := action.(k8stesting.UpdateAction)
			if !ok {
				return true, nil, errors.New("unexpected action type")
			}

			scale, ok := update.GetObject().(*autoscalingv1.Scale)
			if !ok {
				return true, nil, errors.New("unexpected object type")
			}

			f.updates = append(f.updates, scale.Spec.Replicas)
			f.scale.Spec.Replicas = scale.Spec.Replicas

			return true, scale.DeepCopy(), nil
		})
}

func newScaleFixture(namespace, name string, replicas int32) *scaleFixture {
	return &scaleFixture{
		scale: &autoscalingv1.Scale{
			ObjectMeta: metav1.ObjectMeta{
				Namespace:       namespace,
				Name:            name,
				ResourceVersion: "1",
			},
			Spec: autoscalingv1.ScaleSpec{Replicas: replicas},
		},
	}
}

func conflictError(name string) error {
	return apierrors.NewConflict(
		schema.GroupResource{Group: "apps", Resource: "deployments"},
		name,
		errors.New("object has been modified"),
	)
}

func TestAdapter_ListTargetsQuery(t *testing.T) {
	t.Parallel()

	enabled := map[string]string{"autoscaler.beta.k8s.skillcoder.com/enabled": "true"}

	clientset := fake.NewSimpleClientset(
		newDeployment("default", "web", 3, enabled),
		newDeployment("default", "worker", 2, nil),
	)

	repo := k8s.New(slog.Default(), clientset)

	targets, err := repo.ListTargetsQuery(
		context.Background(),
		"autoscaler.beta.k8s.skillcoder.com/enabled=true",
	)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "web", targets[0].Name)
	require.Equal(t, "default", targets[0].Namespace)
	require.Equal(t, int32(3), targets[0].Replicas)
	require.Equal(t, "app=web", targets[0].PodSelector)
	require.Contains(t, targets[0].Annotations, "autoscaler.beta.k8s.skillcoder.com/max-replicas")
}

func TestAdapter_ApplyScaleCommand(t *testing.T) {
	t.Parallel()

	t.Run("writes the desired count", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewSimpleClientset()
		fixture := newScaleFixture("default", "web", 2)
		fixture.install(clientset)

		repo := k8s.New(slog.Default(), clientset)

		require.NoError(t, repo.ApplyScaleCommand(context.Background(), "default", "web", 4))
		require.Equal(t, []int32{4}, fixture.updates)
	})

	t.Run("already at desired count is a no-op", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewSimpleClientset()
		fixture := newScaleFixture("default", "web", 4)
		fixture.install(clientset)

		repo := k8s.New(slog.Default(), clientset)

		require.NoError(t, repo.ApplyScaleCommand(context.Background(), "default", "web", 4))
		require.Empty(t, fixture.updates)
	})

	t.Run("conflict retries once and succeeds", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewSimpleClientset()
		fixture := newScaleFixture("default", "web", 2)
		fixture.updateErrs = []error{conflictError("web")}
		fixture.install(clientset)

		repo := k8s.New(slog.Default(), clientset)

		require.NoError(t, repo.ApplyScaleCommand(context.Background(), "default", "web", 4))
		require.Equal(t, []int32{4}, fixture.updates)
	})

	t.Run("second conflict is surfaced", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewSimpleClientset()
		fixture := newScaleFixture("default", "web", 2)
		fixture.updateErrs = []error{conflictError("web"), conflictError("web")}
		fixture.install(clientset)

		repo := k8s.New(slog.Default(), clientset)

		err := repo.ApplyScaleCommand(context.Background(), "default", "web", 4)
		require.Error(t, err)

		var conflictErr *k8s.ConflictError
		require.ErrorAs(t, err, &conflictErr)
	})

	t.Run("missing target maps to not found", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewSimpleClientset()
		fixture := newScaleFixture("default", "web", 2)
		fixture.getErr = apierrors.NewNotFound(
			schema.GroupResource{Group: "apps", Resource: "deployments"},
			"web",
		)
		fixture.install(clientset)

		repo := k8s.New(slog.Default(), clientset)

		err := repo.ApplyScaleCommand(context.Background(), "default", "web", 4)
		require.Error(t, err)

		var notFoundErr *k8s.TargetNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestAdapter_SetAnnotationCommand(t *testing.T) {
	t.Parallel()

	deployment := newDeployment("default", "web", 2, nil)
	clientset := fake.NewSimpleClientset(deployment)

	repo := k8s.New(slog.Default(), clientset)

	const key = "autoscaler.beta.k8s.skillcoder.com/last-scale"

	err := repo.SetAnnotationCommand(context.Background(), "default", "web", key, "2026-03-01T12:00:00Z from=2 to=4")
	require.NoError(t, err)

	patched, err := clientset.AppsV1().Deployments("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	require.Equal(t, "2026-03-01T12:00:00Z from=2 to=4", patched.Annotations[key])
}
