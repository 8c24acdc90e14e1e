package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/ViaQ/logerr/v2/kverrors"
	"github.com/ViaQ/logerr/v2/log"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apiruntime "k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/openshift/kibana-migrator/internal/config"
	"github.com/openshift/kibana-migrator/internal/constants"
	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	"github.com/openshift/kibana-migrator/internal/metrics"
	"github.com/openshift/kibana-migrator/internal/migrations"
)

var scheme = apiruntime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
}

func main() {
	var (
		configPath string
		verbosity  int
	)
	flag.StringVar(&configPath, "config", "/etc/kibana-migrator/config.yaml", "Path to the migration configuration file.")
	flag.IntVar(&verbosity, "verbosity", 0, "Log verbosity, 1 or higher logs every action attempt.")
	flag.Parse()

	logger := log.NewLogger(constants.ComponentName, log.WithVerbosity(verbosity))
	logger.Info("starting up...",
		"go_version", runtime.Version(),
		"go_os", runtime.GOOS,
		"go_arch", runtime.GOARCH,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error(err, "unable to load configuration")
		os.Exit(1)
	}

	ctx := ctrl.SetupSignalHandler()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(err, "migrations failed")
		os.Exit(1)
	}
	logger.Info("migrations completed")
}

func run(ctx context.Context, cfg *config.Config, logger logr.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if err := metrics.RegisterCustomMetrics(reg); err != nil {
		return kverrors.Wrap(err, "failed to register metrics")
	}
	stop := serveMetrics(cfg.MetricsAddress, reg, logger)
	defer stop()

	esCfg := elasticsearch.Config{
		URL:                cfg.URL,
		Username:           cfg.Username,
		Password:           cfg.Password,
		APIKey:             cfg.APIKey,
		TokenFile:          cfg.TokenFile,
		InsecureSkipVerify: cfg.Insecure,
	}
	if cfg.Secret != nil {
		creds, err := loadCredentials(ctx, cfg.Secret)
		if err != nil {
			return err
		}
		esCfg.Credentials = creds
	}

	es, err := elasticsearch.NewESClient(esCfg)
	if err != nil {
		return err
	}

	retrier := migrations.NewRetrier(logger.WithName("retrier"),
		migrations.WithBackoff(cfg.Retry.InitialDelay, cfg.Retry.MaxDelay, cfg.Retry.Attempts))
	mr := migrations.NewMigrationRequest(elasticsearch.NewClient(cfg.Cluster, es), retrier, logger.WithValues("cluster", cfg.Cluster))

	return migrations.RunMigrations(ctx, mr, cfg, logger)
}

func loadCredentials(ctx context.Context, ref *config.SecretRef) (*elasticsearch.Credentials, error) {
	restConfig, err := ctrl.GetConfig()
	if err != nil {
		return nil, kverrors.Wrap(err, "failed to get kubernetes client configuration")
	}
	k8sClient, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return nil, kverrors.Wrap(err, "failed to create kubernetes client")
	}
	return elasticsearch.LoadCredentials(ctx, k8sClient, client.ObjectKey{
		Namespace: ref.Namespace,
		Name:      ref.Name,
	})
}

func serveMetrics(addr string, reg *prometheus.Registry, logger logr.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(err, "metrics server stopped", "address", addr)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
