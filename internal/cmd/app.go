package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/editais-pncp/portal-client/internal/core/ports"
	"github.com/editais-pncp/portal-client/internal/core/service"
	"github.com/editais-pncp/portal-client/internal/infrastructure/config"
	"github.com/editais-pncp/portal-client/internal/infrastructure/httpclient"
	"github.com/editais-pncp/portal-client/internal/infrastructure/identity"
	"github.com/editais-pncp/portal-client/pkg/logger"
)

var errNotAuthenticated = errors.New("não autenticado: use 'editais login' ou defina EDITAIS_USERNAME e EDITAIS_PASSWORD")

// App holds the wired services for one command invocation.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Sessions *service.SessionManager
	Notices  *service.NoticeService
}

// NewApp wires the HTTP client, the optional identity provider and the
// services. It does not contact the backend. logger.Init must have run.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.HTTPTimeout,
	}, logger.Component("http"))
	if err != nil {
		return nil, err
	}

	var idp ports.IdentityProvider
	if cfg.Clerk.Enabled() {
		clerk := identity.NewClerkProvider(identity.Config{
			Token:     cfg.Clerk.SessionToken,
			TokenFile: cfg.Clerk.TokenFile,
		}, logger.Component("identity"))
		if err := clerk.Load(ctx); err != nil {
			return nil, fmt.Errorf("load identity provider: %w", err)
		}
		idp = clerk
	}

	sessions := service.NewSessionManager(client, idp, logger.Component("session"),
		service.WithPaths(service.Paths{
			IdentityStatus:   cfg.Clerk.StatusPath,
			IdentityRegister: cfg.Clerk.RegisterPath,
		}),
	)

	return &App{
		Config:   cfg,
		Log:      logger.Component("cli"),
		Sessions: sessions,
		Notices:  service.NewNoticeService(client, sessions, logger.Component("notices")),
	}, nil
}

// Start runs the start-up resolution. An unresolved status is logged and left
// for the command to deal with.
func (a *App) Start(ctx context.Context) {
	if err := a.Sessions.Start(ctx); err != nil {
		a.Log.Warn().Err(err).Msg("session status unresolved at start-up")
	}
}

// EnsureAuthenticated logs in with the configured credentials when the
// session resolved as signed out.
func (a *App) EnsureAuthenticated(ctx context.Context) error {
	if a.Sessions.Session().Authenticated() {
		return nil
	}
	if !a.Config.HasCredentials() {
		return errNotAuthenticated
	}
	if err := a.Sessions.Login(ctx, a.Config.Credentials()); err != nil {
		return err
	}
	if !a.Sessions.Session().Authenticated() {
		return errNotAuthenticated
	}
	return nil
}
