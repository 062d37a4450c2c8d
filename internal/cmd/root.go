package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/editais-pncp/portal-client/internal/infrastructure/config"
	"github.com/editais-pncp/portal-client/pkg/logger"
)

// cli carries the persistent flags shared by every command.
type cli struct {
	apiURL      string
	logLevel    string
	pretty      bool
	metricsAddr string
}

// NewRootCommand builds the editais command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "editais",
		Short: "Cliente do portal de editais de licitação",
		Long: `editais autentica o operador no portal de editais, lista os editais e seus
itens, dispara a atualização dos dados e baixa as exportações em lote.

A sessão é resolvida a cada execução: primeiro pela sessão do portal e, se ela
não existir, pelo token do provedor de identidade (CLERK_SESSION_TOKEN ou
CLERK_TOKEN_FILE). Com EDITAIS_USERNAME e EDITAIS_PASSWORD definidos, os
comandos protegidos fazem login automaticamente.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&c.apiURL, "api-url", "", "URL base do backend (padrão: EDITAIS_API_URL)")
	f.StringVar(&c.logLevel, "log-level", "", "nível de log: trace, debug, info, warn, error (padrão: LOG_LEVEL)")
	f.BoolVar(&c.pretty, "pretty", false, "logs legíveis em vez de JSON (padrão: LOG_PRETTY)")
	f.StringVar(&c.metricsAddr, "metrics-addr", "", "endereço do servidor /metrics do comando watch (padrão: METRICS_ADDR)")

	root.AddCommand(
		c.statusCommand(),
		c.loginCommand(),
		c.logoutCommand(),
		c.registerCommand(),
		c.listCommand(),
		c.showCommand(),
		c.itemsCommand(),
		c.updateCommand(),
		c.exportCommand(),
		c.watchCommand(),
	)
	return root
}

// ExecuteContext runs the command tree with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// open loads configuration, applies flag overrides and wires the App. When
// start is set the start-up session resolution runs as well.
func (c *cli) open(cmd *cobra.Command, start bool) (*App, error) {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = c.apiURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("pretty") {
		cfg.LogPretty = c.pretty
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = c.metricsAddr
	}

	logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if start {
		app.Start(ctx)
	}
	return app, nil
}

// protected opens the App and makes sure the session is authenticated.
func (c *cli) protected(cmd *cobra.Command) (*App, error) {
	app, err := c.open(cmd, true)
	if err != nil {
		return nil, err
	}
	if err := app.EnsureAuthenticated(cmd.Context()); err != nil {
		return nil, err
	}
	return app, nil
}
