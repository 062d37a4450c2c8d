package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/editais-pncp/portal-client/internal/core/domain"
)

const maxCellRunes = 60

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
)

var statusLabels = map[domain.AuthStatus]string{
	domain.StatusLoading:         "carregando",
	domain.StatusAuthenticated:   "autenticado",
	domain.StatusUnauthenticated: "não autenticado",
}

func renderStatus(s domain.AuthStatus) string {
	label := statusLabels[s]
	switch s {
	case domain.StatusAuthenticated:
		return okStyle.Render(label)
	case domain.StatusUnauthenticated:
		return errStyle.Render(label)
	default:
		return warnStyle.Render(label)
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// field prints one "Label: value" line.
func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), value)
}

// truncate shortens s to maxCellRunes runes for table cells.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxCellRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxCellRunes-1]) + "…"
}
