package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/service"
	"github.com/editais-pncp/portal-client/internal/infrastructure/metrics"
	"github.com/editais-pncp/portal-client/internal/infrastructure/queue"
	"github.com/editais-pncp/portal-client/pkg/logger"
)

func (c *cli) watchCommand() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Acompanha a sessão e a lista de editais até ser interrompido",
		Long: `Re-resolve a sessão e recarrega a lista de editais a cada intervalo.
Uma falha mantém a última lista carregada. Com --metrics-addr as métricas
ficam disponíveis em /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.protected(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if app.Config.MetricsAddr != "" {
				metrics.NewServer(app.Config.MetricsAddr, logger.Component("metrics")).Start(ctx)
			}

			list := service.NewNoticeList(app.Notices)
			out := cmd.OutOrStdout()
			d := queue.NewDispatcher(interval, logger.Component("watch"),
				queue.Task{Name: "session", Run: func(ctx context.Context) error {
					err := app.Sessions.Refresh(ctx)
					if errors.Is(err, domain.ErrUnauthenticated) {
						return app.EnsureAuthenticated(ctx)
					}
					return err
				}},
				queue.Task{Name: "notices", Run: func(ctx context.Context) error {
					err := list.Load(ctx)
					if ctx.Err() != nil {
						return ctx.Err()
					}
					stale := ""
					if err != nil {
						stale = " (desatualizada: " + domain.Message(err) + ")"
					}
					fmt.Fprintf(out, "%s  %d editais%s\n", time.Now().Format("15:04:05"), len(list.Notices()), stale)
					return err
				}},
			)
			d.Run(ctx)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "intervalo entre atualizações")
	return cmd
}
