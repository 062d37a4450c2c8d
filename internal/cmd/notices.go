package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/normalizer"
	"github.com/editais-pncp/portal-client/internal/core/search"
	"github.com/editais-pncp/portal-client/internal/core/service"
)

func (c *cli) listCommand() *cobra.Command {
	var query string
	var fold bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista os editais",
		Long: `Lista os editais na ordem do backend.

--search filtra por processo, CNPJ, órgão, objeto ou valor estimado,
sem diferenciar maiúsculas. Com --fold-accents os acentos também são ignorados.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.protected(cmd)
			if err != nil {
				return err
			}
			list := service.NewNoticeList(app.Notices)
			if err := list.Load(cmd.Context()); err != nil {
				return fmt.Errorf("erro ao carregar editais: %s", domain.Message(err))
			}

			var opts []search.Option
			if fold {
				opts = append(opts, search.WithAccentFolding())
			}
			all := list.Notices()
			shown := list.Filter(query, opts...)
			printNotices(cmd.OutOrStdout(), shown)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d de %d editais\n", len(shown), len(all))
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "termo de busca")
	cmd.Flags().BoolVar(&fold, "fold-accents", false, "ignora acentos na busca")
	return cmd
}

func printNotices(w io.Writer, notices []domain.Notice) {
	tw := newTable(w)
	fmt.Fprintln(tw, "CHAVE\tÓRGÃO\tCNPJ\tOBJETO\tVALOR ESTIMADO")
	for _, n := range notices {
		key := n.Key
		if !n.Linkable() {
			key = normalizer.TextPlaceholder
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			key,
			truncate(normalizer.OrPlaceholder(n.LegalName)),
			normalizer.FormatCNPJ(n.TaxID),
			truncate(normalizer.OrPlaceholder(n.ObjectDescription)),
			normalizer.FormatAmount(n.EstimatedTotal),
		)
	}
	_ = tw.Flush()
}

func (c *cli) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <chave>",
		Short: "Mostra o detalhe de um edital e seus itens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.protected(cmd)
			if err != nil {
				return err
			}
			key := args[0]
			ctx := cmd.Context()

			detailOp := service.Start(ctx, func(ctx context.Context) (domain.Notice, error) {
				return app.Notices.Get(ctx, key)
			})
			itemsOp := service.Start(ctx, func(ctx context.Context) ([]domain.NoticeItem, error) {
				return app.Notices.Items(ctx, key)
			})

			n, err := detailOp.Wait()
			if err != nil {
				itemsOp.Cancel()
				return fmt.Errorf("erro ao carregar edital: %s", domain.Message(err))
			}

			out := cmd.OutOrStdout()
			printNotice(out, n)

			items, err := itemsOp.Wait()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "aviso: itens indisponíveis: %s\n", domain.Message(err))
				return nil
			}
			fmt.Fprintln(out)
			printItems(out, items)
			return nil
		},
	}
}

func printNotice(w io.Writer, n domain.Notice) {
	field(w, "Chave", n.Key)
	field(w, "Órgão", normalizer.OrPlaceholder(n.LegalName))
	field(w, "CNPJ", normalizer.FormatCNPJ(n.TaxID))
	field(w, "Processo", normalizer.OrPlaceholder(n.Process))
	field(w, "Modalidade", normalizer.OrPlaceholder(n.Modality))
	field(w, "Objeto", normalizer.OrPlaceholder(n.ObjectDescription))
	field(w, "Valor estimado", normalizer.FormatAmount(n.EstimatedTotal))
	field(w, "Abertura das propostas", normalizer.FormatDateTime(n.ProposalOpening))
	field(w, "Encerramento das propostas", normalizer.FormatDateTime(n.ProposalClosing))
	if n.AdditionalInfo != "" {
		field(w, "Informações complementares", n.AdditionalInfo)
	}
}

func (c *cli) itemsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "items <chave>",
		Short: "Lista os itens de um edital",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.protected(cmd)
			if err != nil {
				return err
			}
			items, err := app.Notices.Items(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("erro ao carregar itens: %s", domain.Message(err))
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func printItems(w io.Writer, items []domain.NoticeItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nenhum item.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ITEM\tDESCRIÇÃO\tQTD\tUNIDADE\tVALOR UNITÁRIO")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			normalizer.OrPlaceholder(it.Key),
			truncate(normalizer.OrPlaceholder(it.Description)),
			normalizer.OrPlaceholder(it.Quantity),
			normalizer.OrPlaceholder(it.Unit),
			normalizer.FormatAmount(it.UnitValue),
		)
	}
	_ = tw.Flush()
}

func (c *cli) updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Dispara a atualização dos dados no portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.protected(cmd)
			if err != nil {
				return err
			}
			msg, err := app.Notices.TriggerUpdate(cmd.Context())
			if err != nil {
				return fmt.Errorf("erro ao disparar atualização: %s", domain.Message(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func (c *cli) exportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "export csv|xlsx",
		Short:     "Baixa a exportação em lote dos editais",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.ExportCSV), string(domain.ExportXLSX)},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := domain.ExportFormat(args[0])
			if !format.Valid() {
				return fmt.Errorf("formato não suportado: %q (use csv ou xlsx)", args[0])
			}
			app, err := c.protected(cmd)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = "editais." + string(format)
			}
			if path == "-" {
				_, err := app.Notices.Export(cmd.Context(), format, cmd.OutOrStdout())
				return err
			}

			n, err := exportToFile(cmd.Context(), app, format, path)
			if err != nil {
				return fmt.Errorf("erro na exportação: %s", domain.Message(err))
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d bytes gravados em %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "arquivo de saída; '-' para stdout (padrão: editais.<formato>)")
	return cmd
}

// exportToFile streams the export into path, removing the file on failure.
func exportToFile(ctx context.Context, app *App, format domain.ExportFormat, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := app.Notices.Export(ctx, format, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return n, err
	}
	return n, nil
}
