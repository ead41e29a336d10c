package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d9i2r2t1/hh-parser/pkg/config"
)

// defaultSchedule runs the job every morning at 09:00.
const defaultSchedule = "0 9 * * *"

var (
	schedule    string
	metricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Process the job configs on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&schedule, "schedule", defaultSchedule, "cron expression for the job runs")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090",
		"address for the Prometheus /metrics endpoint, empty disables it")
}

func serve(ctx context.Context) error {
	spec, err := resolveSchedule()
	if err != nil {
		return err
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(spec, func() {
		if err := runOnce(ctx); err != nil {
			zap.S().Errorf("Scheduled run failed: %+v", err)
		}
	})
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		go serveMetrics(metricsAddr)
	}

	scheduler.Start()
	zap.S().Infof("Scheduler started with schedule %q", spec)

	<-ctx.Done()
	zap.S().Info("Shutting down, waiting for the running job to finish...")
	stopCtx := scheduler.Stop()

	select {
	case <-stopCtx.Done():
	case <-time.After(time.Minute):
		zap.S().Warn("Running job did not finish in time")
	}
	return nil
}

// resolveSchedule prefers the --schedule flag; when it is left at the
// default, the first config that declares a schedule wins.
func resolveSchedule() (string, error) {
	if schedule != defaultSchedule {
		return schedule, nil
	}

	paths, err := resolveConfigPaths()
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		cfg, err := config.Load(path)
		if err != nil {
			continue
		}
		if cfg.Schedule != "" {
			zap.S().Debugf("Using schedule %q from config %q", cfg.Schedule, cfg.FileName)
			return cfg.Schedule, nil
		}
	}
	return defaultSchedule, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	zap.S().Infof("Serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		zap.S().Errorf("Metrics server failed: %v", err)
	}
}
