package cli

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d9i2r2t1/hh-parser/pkg/config"
	"github.com/d9i2r2t1/hh-parser/pkg/hh"
	"github.com/d9i2r2t1/hh-parser/pkg/pipeline"
)

var (
	configNames []string
	sendEmail   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every job config once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&configNames, "config", nil,
		"config file names to process, all runnable configs by default")
	runCmd.Flags().BoolVar(&sendEmail, "send-email", true, "mail the report to the configured recipients")

	serveCmd.Flags().AddFlagSet(runCmd.Flags())
	statusCmd.Flags().StringSliceVar(&configNames, "config", nil,
		"config file names to inspect, all runnable configs by default")
}

func runOnce(ctx context.Context) error {
	paths, err := resolveConfigPaths()
	if err != nil {
		return err
	}

	client, err := hh.NewClient()
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(client, tempDir, logFilePath, sendEmail)
	runErr := runner.Run(ctx, paths)

	if _, err := pipeline.RemoveOldFiles(tempDir, pipeline.MaxReportAge); err != nil {
		zap.S().Warnf("Report cleanup failed: %v", err)
	}
	return runErr
}

// resolveConfigPaths lists the runnable configs, narrowed to --config names
// when any were given. Asking for a name that does not exist is an error.
func resolveConfigPaths() ([]string, error) {
	paths, err := config.Discover(configsDir)
	if err != nil {
		return nil, err
	}
	if len(configNames) == 0 {
		return paths, nil
	}

	byName := make(map[string]string, len(paths))
	for _, path := range paths {
		byName[filepath.Base(path)] = path
	}

	var selected []string
	for _, name := range configNames {
		path, ok := byName[name]
		if !ok {
			return nil, errors.Errorf("config %q not found in %s", name, configsDir)
		}
		selected = append(selected, path)
	}
	return selected, nil
}
