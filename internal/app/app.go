package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/skillcoder/replica-autoscaler/internal/adapters/outbound/k8s"
	"github.com/skillcoder/replica-autoscaler/internal/adapters/outbound/metricsapi"
	"github.com/skillcoder/replica-autoscaler/internal/adapters/outbound/prometheus"
	"github.com/skillcoder/replica-autoscaler/internal/config"
	"github.com/skillcoder/replica-autoscaler/internal/httpserver"
	"github.com/skillcoder/replica-autoscaler/internal/infra/cronparser"
	"github.com/skillcoder/replica-autoscaler/internal/infra/shutdown"
	"github.com/skillcoder/replica-autoscaler/internal/logic/autoscaler"
)

const terminationFilePath = "/mnt/signal/terminating"

type App struct {
	logger          *slog.Logger
	appState        appstater
	shutdownHandler signalHandler
	servers         []appServer
}

// New creates a new application instance with all dependencies wired.
// pingerService is shared with appState, which exposes its statistics.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	appState appstater,
	pingerService appServer,
) (*App, error) {
	// Create K8s config
	kubeConfig, err := clientcmd.BuildConfigFromFlags(
		cfg.KubeMaster,
		cfg.KubeConfig,
	)
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	// Create K8s clientset
	clientset, err := kubernetes.NewForConfig(kubeConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	// Create metrics clientset
	metricsClientset, err := metricsv.NewForConfig(kubeConfig)
	if err != nil {
		return nil, fmt.Errorf("create metrics clientset: %w", err)
	}

	// Create secondary adapters
	scaleRepo := k8s.New(logger, clientset)
	resourceSource := metricsapi.New(logger, clientset, metricsClientset)

	var customSource autoscaler.MetricSource
	if cfg.PrometheusURL != "" {
		customSource = prometheus.New(logger, cfg.PrometheusURL, nil)
	}

	selector := cfg.TargetLabelSelector
	if selector == "" {
		selector = autoscaler.AutoscalerTargetLabelSelector
	}

	// Create logic service (inject adapters)
	autoscalerService := autoscaler.New(
		logger,
		scaleRepo,
		resourceSource,
		customSource,
		cronparser.New(),
		autoscaler.Options{
			Interval:      cfg.Interval,
			CycleTimeout:  cfg.CycleTimeout,
			LabelSelector: selector,
			Stabilization: autoscaler.StabilizationConfig{
				UpWindow:   cfg.ScaleUpWindow,
				DownWindow: cfg.ScaleDownWindow,
				ScaleDown: autoscaler.ScaleDownPolicy{
					Percent: cfg.ScaleDownPercentPerPeriod,
					Pods:    cfg.ScaleDownPodsPerPeriod,
					Period:  cfg.ScaleDownPeriod,
				},
			},
		},
	)

	httpServer := httpserver.New(logger, appState, cfg.HTTPPort)
	metricsServer := httpserver.NewMetricsServer(logger, cfg.MetricsPort)

	shutdownHandler := shutdown.New(logger, appState, terminationFilePath)

	return &App{
		logger:          logger,
		appState:        appState,
		shutdownHandler: shutdownHandler,
		servers: []appServer{
			pingerService,
			metricsServer,
			httpServer,
			autoscalerService,
		},
	}, nil
}

// Run starts the application and blocks until context is cancelled.
func (a *App) Run(originCtx context.Context) error {
	err := a.shutdownHandler.CheckTermination(originCtx)
	if err != nil {
		return fmt.Errorf("check termination: %w", err)
	}

	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go a.shutdownHandler.HandleSignals(ctx, cancel)

	if err := a.appState.SetStarting(ctx); err != nil {
		return fmt.Errorf("set starting: %w", err)
	}

	readyChans := make([]<-chan struct{}, 0, len(a.servers))

	for _, server := range a.servers {
		a.logger.InfoContext(ctx, "starting component", "component", server.Name())

		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", server.Name(), err)
		}

		if err := a.appState.RegisterShutdowner(server); err != nil {
			return fmt.Errorf("register shutdowner %s: %w", server.Name(), err)
		}

		if err := a.appState.RegisterPinger(server); err != nil {
			return fmt.Errorf("register pinger %s: %w", server.Name(), err)
		}

		readyChans = append(readyChans, server.Ready())
	}

	select {
	case <-allChannelsClose(ctx, a.logger, readyChans...):
		if err := a.appState.SetRunning(ctx); err != nil {
			return fmt.Errorf("set running: %w", err)
		}

		a.logger.InfoContext(ctx, "all components ready")
	case <-ctx.Done():
	}

	<-ctx.Done()

	a.logger.InfoContext(ctx, "context cancelled, shutting down")

	return a.appState.Shutdown(originCtx)
}

// allChannelsClose returns a channel that closes once every input channel has
// closed. The context is used for logging only; readiness is always awaited.
func allChannelsClose(
	ctx context.Context,
	logger *slog.Logger,
	chans ...<-chan struct{},
) <-chan struct{} {
	out := make(chan struct{})

	var wg sync.WaitGroup

	for _, ch := range chans {
		wg.Add(1)

		go func() {
			defer wg.Done()

			<-ch
		}()
	}

	go func() {
		wg.Wait()

		logger.DebugContext(ctx, "all readiness channels closed")

		close(out)
	}()

	return out
}
