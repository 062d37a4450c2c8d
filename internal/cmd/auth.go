package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/normalizer"
)

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Mostra a sessão resolvida e o estado do portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.open(cmd, false)
			if err != nil {
				return err
			}
			err = app.Sessions.Start(cmd.Context())
			printSession(cmd.OutOrStdout(), app.Sessions.Session())
			return err
		},
	}
}

func printSession(w io.Writer, s domain.AuthSession) {
	field(w, "Status", renderStatus(s.Status))
	if s.Identity != nil {
		who := s.Identity.DisplayName()
		if s.Identity.Email != "" {
			who += " <" + s.Identity.Email + ">"
		}
		field(w, "Usuário", who)
		field(w, "Origem", string(s.Identity.Source))
	}
	if s.Info != nil {
		total := normalizer.TextPlaceholder
		if s.Info.TotalNotices != nil {
			total = fmt.Sprint(*s.Info.TotalNotices)
		}
		field(w, "Editais", total)
		field(w, "Última atualização", normalizer.FormatDateTime(s.Info.LastUpdate))
		if len(s.Info.Scheduler) > 0 {
			field(w, "Agendador", formatScheduler(s.Info.Scheduler))
		}
	}
	if s.LastError != "" {
		field(w, "Erro", errStyle.Render(s.LastError))
	}
}

func formatScheduler(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func (c *cli) loginCommand() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Autentica no portal com usuário e senha",
		Long: `Autentica no portal com usuário e senha.

Sem --password a senha é lida de EDITAIS_PASSWORD ou pedida no terminal.

Exemplos:
  editais login --username maria
  EDITAIS_PASSWORD=... editais login --username maria`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			creds := app.Config.Credentials()
			if username != "" {
				creds.Username = username
			}
			if password != "" {
				creds.Password = password
			}
			if creds.Password == "" {
				if creds.Password, err = promptPassword(cmd, "Senha: "); err != nil {
					return err
				}
			}

			if err := app.Sessions.Login(cmd.Context(), creds); err != nil {
				return fmt.Errorf("falha no login: %s", domain.Message(err))
			}
			s := app.Sessions.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "Autenticado como %s.\n", s.Identity.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "nome de usuário (padrão: EDITAIS_USERNAME)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "senha (padrão: EDITAIS_PASSWORD)")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Encerra a sessão no portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.protected(cmd)
			if err != nil {
				return err
			}
			logoutErr := app.Sessions.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Sessão encerrada.")
			if logoutErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "aviso: %s\n", domain.Message(logoutErr))
			}
			return nil
		},
	}
}

func (c *cli) registerCommand() *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Cria uma conta no portal",
		Long: `Cria uma conta no portal. A sessão não é aberta; use 'editais login' em seguida.

A senha precisa ter ao menos 6 caracteres com letra maiúscula, minúscula,
número e caractere especial. Sem --password ela é pedida no terminal.

Exemplo:
  editais register --name "Maria Silva" --username maria --email maria@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.open(cmd, false)
			if err != nil {
				return err
			}
			if reg.Password == "" {
				if reg.Password, err = promptPassword(cmd, "Senha: "); err != nil {
					return err
				}
				if reg.ConfirmPassword, err = promptPassword(cmd, "Confirme a senha: "); err != nil {
					return err
				}
			}
			if reg.ConfirmPassword == "" && !cmd.Flags().Changed("confirm") {
				reg.ConfirmPassword = reg.Password
			}

			if err := app.Sessions.Register(cmd.Context(), reg); err != nil {
				return fmt.Errorf("falha no cadastro: %s", domain.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Usuário %s criado com sucesso.\n", reg.Username)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.Name, "name", "", "nome completo")
	f.StringVar(&reg.Username, "username", "", "nome de usuário")
	f.StringVar(&reg.Email, "email", "", "e-mail")
	f.StringVar(&reg.Password, "password", "", "senha")
	f.StringVar(&reg.ConfirmPassword, "confirm", "", "confirmação da senha (padrão: igual a --password)")
	return cmd
}

var errNoTerminal = errors.New("nenhum terminal disponível para pedir a senha (use --password)")

// promptPassword reads a secret from the terminal with echo disabled.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("ler senha: %w", err)
	}
	return string(pw), nil
}
