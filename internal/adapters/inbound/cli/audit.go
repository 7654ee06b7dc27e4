package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cacheAdapter "github.com/mapaudit/mapaudit/internal/adapters/outbound/cache"
	configAdapter "github.com/mapaudit/mapaudit/internal/adapters/outbound/config"
	"github.com/mapaudit/mapaudit/internal/adapters/outbound/discovery"
	"github.com/mapaudit/mapaudit/internal/adapters/outbound/gitinfo"
	indexAdapter "github.com/mapaudit/mapaudit/internal/adapters/outbound/index"
	"github.com/mapaudit/mapaudit/internal/adapters/outbound/mapparser"
	"github.com/mapaudit/mapaudit/internal/adapters/outbound/report"
	"github.com/mapaudit/mapaudit/internal/application"
	"github.com/mapaudit/mapaudit/internal/domain"
)

// ExitError carries a specific process exit code through cobra's error
// return: 1 for a failed audit, 2 (the default for plain errors) for an
// infrastructure fault.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// auditFlags are the CLI override layer on top of the config file.
type auditFlags struct {
	format        string
	verbose       bool
	noSuggestions bool
	timeout       time.Duration
	serial        bool
	workers       int
	cache         bool
}

func (f *auditFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "Report format: console, structured or document")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Include info-level issues and debug logging")
	cmd.Flags().BoolVar(&f.noSuggestions, "no-suggestions", false, "Hide corrective hints")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Overall execution budget (e.g. 30s)")
	cmd.Flags().BoolVar(&f.serial, "serial", false, "Disable concurrent validation")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Validator worker pool size (0 = all cores)")
	cmd.Flags().BoolVar(&f.cache, "cache", false, "Reuse the route-scan cache between runs")
}

// overlay converts only the flags the user actually set, so file values
// survive unless explicitly overridden.
func (f *auditFlags) overlay(cmd *cobra.Command) domain.ConfigOverlay {
	var layer domain.ConfigOverlay
	if cmd.Flags().Changed("format") {
		layer.Reporting.Format = &f.format
	}
	if cmd.Flags().Changed("verbose") {
		layer.Reporting.Verbose = &f.verbose
	}
	if cmd.Flags().Changed("no-suggestions") {
		show := !f.noSuggestions
		layer.Reporting.ShowSuggestions = &show
	}
	if cmd.Flags().Changed("timeout") {
		d := domain.Duration(f.timeout)
		layer.Performance.MaxExecutionTime = &d
	}
	if cmd.Flags().Changed("serial") {
		parallel := !f.serial
		layer.Performance.Parallel = &parallel
	}
	if cmd.Flags().Changed("workers") {
		layer.Performance.Workers = &f.workers
	}
	if cmd.Flags().Changed("cache") {
		layer.Performance.CacheEnabled = &f.cache
	}
	return layer
}

func newAuditCmd() *cobra.Command {
	var flags auditFlags

	cmd := &cobra.Command{
		Use:   "audit [path]",
		Short: "Audit system maps against the codebase",
		Long:  "Discover system-map documents under the project root, build the codebase index, and validate every declared component, endpoint and reference.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRoot, cfg, logger, err := setup(cmd, args, &flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			svc := newAuditService(cfg, logger)
			result, err := svc.Audit(cmd.Context(), projectRoot, cfg)
			if err != nil {
				return fmt.Errorf("audit could not run: %w", err)
			}

			reporter := report.ForFormat(cfg.Reporting.Format)
			fmt.Fprint(cmd.OutOrStdout(), reporter.Render(result, cfg.Reporting))

			if !result.Passed {
				return &ExitError{Code: 1, Err: fmt.Errorf("audit failed with %d error(s)", result.Errors)}
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// setup resolves the project root, layered config and logger shared by the
// audit and watch commands.
func setup(cmd *cobra.Command, args []string, flags *auditFlags) (string, domain.AuditConfig, *zap.Logger, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	projectRoot, err := filepath.Abs(path)
	if err != nil {
		return "", domain.AuditConfig{}, nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := configAdapter.Resolve(configAdapter.New(), projectRoot, flags.overlay(cmd))
	if err != nil {
		return "", domain.AuditConfig{}, nil, err
	}

	logger := zap.NewNop()
	if cfg.Reporting.Verbose {
		if built, err := zap.NewDevelopment(); err == nil {
			logger = built
		}
	}
	return projectRoot, cfg, logger, nil
}

func newAuditService(cfg domain.AuditConfig, logger *zap.Logger) *application.AuditService {
	var indexCache domain.IndexCache
	if cfg.Performance.CacheEnabled {
		indexCache = cacheAdapter.New()
	}
	return application.NewAuditService(
		discovery.New(),
		mapparser.New(),
		indexAdapter.New(indexCache, logger),
		gitinfo.New(),
		logger,
	)
}
