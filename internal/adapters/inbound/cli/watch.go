package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mapaudit/mapaudit/internal/adapters/outbound/report"
	"github.com/mapaudit/mapaudit/internal/application"
	"github.com/mapaudit/mapaudit/internal/domain"
)

func newWatchCmd() *cobra.Command {
	var flags auditFlags

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-audit on every change",
		Long:  "Run the audit, then keep watching the project tree and re-run it whenever files change. Useful while editing system maps.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRoot, cfg, logger, err := setup(cmd, args, &flags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			reporter := report.ForFormat(cfg.Reporting.Format)
			watcher := application.NewWatchService(newAuditService(cfg, logger), logger)

			err = watcher.Run(cmd.Context(), projectRoot, cfg, func(result *domain.AuditResult) {
				fmt.Fprint(cmd.OutOrStdout(), reporter.Render(result, cfg.Reporting))
			})
			if err != nil && cmd.Context().Err() == nil {
				return fmt.Errorf("watch failed: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
