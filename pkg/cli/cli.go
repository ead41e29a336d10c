// Package cli wires the hh-parser commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/d9i2r2t1/hh-parser/pkg/logging"
)

var (
	configsDir string
	logsDir    string
	tempDir    string
	logLevel   string
	deployEnv  string

	// logFilePath is set by the logger and attached to failure mails.
	logFilePath string
)

var rootCmd = &cobra.Command{
	Use:   "hh-parser",
	Short: "Track hh.ru vacancies for configured search queries",
	Long: `hh-parser fetches hh.ru search results for every configured query,
stores the derived datasets in PostgreSQL and mails an xlsx report
to the subscribers.
	`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := logging.InitGlobalLogger(deployEnv, logsDir, logLevel)
		if err != nil {
			return err
		}
		logFilePath = path
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configsDir, "configs-dir", "cfgs", "directory with the job config files")
	rootCmd.PersistentFlags().StringVar(&logsDir, "logs-dir", "logs", "directory for the log file, empty disables file logging")
	rootCmd.PersistentFlags().StringVar(&tempDir, "temp-dir", "temp", "directory for generated report files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&deployEnv, "env", "prod", "environment the service runs in: dev or prod")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command under a signal-cancelled context.
// This is called by main.main().
func Execute(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalChan
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
