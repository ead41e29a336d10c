// Package pipeline runs the full job for each configured search query:
// fetch the vacancies, derive the datasets, persist them, render the
// report and mail it to the subscribers.
package pipeline

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/d9i2r2t1/hh-parser/pkg/config"
	"github.com/d9i2r2t1/hh-parser/pkg/etl"
	"github.com/d9i2r2t1/hh-parser/pkg/hh"
	"github.com/d9i2r2t1/hh-parser/pkg/mail"
	"github.com/d9i2r2t1/hh-parser/pkg/report"
	"github.com/d9i2r2t1/hh-parser/pkg/store"
)

// Searcher fetches vacancies for one search query.
type Searcher interface {
	Search(ctx context.Context, params hh.SearchParams) (*hh.Result, error)
}

// Storage persists the run datasets. Satisfied by store.Store.
type Storage interface {
	StoredState(ctx context.Context) (etl.StoredState, error)
	SaveDatasets(ctx context.Context, datasets etl.Datasets) error
	DatabaseSize(ctx context.Context) (string, error)
	Close()
}

// Notifier delivers report and failure emails. Satisfied by mail.Sender.
type Notifier interface {
	SendReport(searchText, reportPath string, now time.Time) error
	SendFailure(runErr error, logPath string, now time.Time) error
}

type Runner struct {
	searcher     Searcher
	connectStore func(ctx context.Context, cfg config.Postgres) (Storage, error)
	newNotifier  func(cfg config.Email) Notifier

	// tempDir is where report files are written before mailing.
	tempDir string
	// logFilePath gets attached to failure notifications. May be empty.
	logFilePath string
	sendEmail   bool
	clock       func() time.Time
}

// NewRunner wires the production implementations behind the Runner.
func NewRunner(searcher Searcher, tempDir, logFilePath string, sendEmail bool) *Runner {
	return &Runner{
		searcher: searcher,
		connectStore: func(ctx context.Context, cfg config.Postgres) (Storage, error) {
			return store.Connect(ctx, cfg)
		},
		newNotifier: func(cfg config.Email) Notifier {
			return mail.NewSender(cfg)
		},
		tempDir:     tempDir,
		logFilePath: logFilePath,
		sendEmail:   sendEmail,
		clock:       time.Now,
	}
}

// Run processes every config file independently. A failing config does not
// stop the others: its error is reported to the service mailbox and folded
// into the returned aggregate.
func (r *Runner) Run(ctx context.Context, configPaths []string) error {
	if len(configPaths) == 0 {
		return errors.New("no job configs found")
	}

	var runErrors *multierror.Error
	for _, path := range configPaths {
		if err := ctx.Err(); err != nil {
			return multierror.Append(runErrors, err).ErrorOrNil()
		}

		cfg, err := config.Load(path)
		if err != nil {
			zap.S().Errorf("Skipping config %s: %v", path, err)
			runErrors = multierror.Append(runErrors, err)
			continue
		}

		zap.S().Infof("Processing config %q...", cfg.FileName)
		if err := r.runConfig(ctx, cfg); err != nil {
			zap.S().Errorf("Config %q failed: %+v", cfg.FileName, err)
			runErrors = multierror.Append(runErrors, errors.Wrapf(err, "config %s", cfg.FileName))
			r.notifyFailure(cfg, err)
			continue
		}
		zap.S().Infof("Config %q processed", cfg.FileName)
	}
	return runErrors.ErrorOrNil()
}

func (r *Runner) runConfig(ctx context.Context, cfg *config.Config) error {
	now := r.clock()

	result, err := r.searcher.Search(ctx, hh.SearchParams{
		Area:         cfg.Parser.Area,
		SearchPeriod: cfg.Parser.SearchPeriod,
		SearchText:   cfg.Parser.SearchText,
		SearchRegex:  cfg.Parser.SearchRegex,
	})
	if err != nil {
		return errors.Wrap(err, "vacancy search failed")
	}

	storage, err := r.connectStore(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer storage.Close()

	stored, err := storage.StoredState(ctx)
	if err != nil {
		return err
	}

	datasets := etl.Build(result, stored)
	if err := storage.SaveDatasets(ctx, datasets); err != nil {
		return err
	}
	r.logDatabaseSize(ctx, storage)

	reportPath, err := report.Create(r.tempDir, cfg.Parser.SearchText, datasets.RankedJobs, now)
	if err != nil {
		return err
	}

	if !r.sendEmail {
		zap.S().Infof("Email sending is disabled, report kept at %s", reportPath)
		return nil
	}
	if err := r.newNotifier(cfg.Email).SendReport(cfg.Parser.SearchText, reportPath, now); err != nil {
		return errors.Wrap(err, "failed to mail the report")
	}
	return nil
}

// notifyFailure mails the crash notification to the service mailbox,
// attaching the current log file. Best effort.
func (r *Runner) notifyFailure(cfg *config.Config, runErr error) {
	if cfg.ServiceMail.Server == "" {
		zap.S().Debug("Service mailbox is not configured, skipping failure notification")
		return
	}
	if err := r.newNotifier(cfg.ServiceMail).SendFailure(runErr, r.logFilePath, r.clock()); err != nil {
		zap.S().Errorf("Failed to send failure notification: %v", err)
	}
}

func (r *Runner) logDatabaseSize(ctx context.Context, storage Storage) {
	size, err := storage.DatabaseSize(ctx)
	if err != nil {
		zap.S().Debugf("Failed to read database size: %v", err)
		return
	}
	zap.S().Debugf("Database size: %s", size)
}
