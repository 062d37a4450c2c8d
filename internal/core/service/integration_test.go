package service_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/service"
	"github.com/editais-pncp/portal-client/internal/infrastructure/httpclient"
	"github.com/editais-pncp/portal-client/internal/infrastructure/identity"
	"github.com/editais-pncp/portal-client/internal/portaltest"
)

type harness struct {
	portal   *portaltest.Portal
	sessions *service.SessionManager
	notices  *service.NoticeService
}

func newHarness(t *testing.T, clerkToken string) *harness {
	t.Helper()
	p := portaltest.New()
	t.Cleanup(p.Close)
	require.NoError(t, p.AddUser("Maria Silva", "maria", "maria@example.com", "Senha@123"))

	client, err := httpclient.New(httpclient.Config{BaseURL: p.URL(), Timeout: 5 * time.Second}, zerolog.Nop())
	require.NoError(t, err)

	idp := identity.NewClerkProvider(identity.Config{Token: clerkToken}, zerolog.Nop())
	require.NoError(t, idp.Load(context.Background()))

	sm := service.NewSessionManager(client, idp, zerolog.Nop())
	return &harness{
		portal:   p,
		sessions: sm,
		notices:  service.NewNoticeService(client, sm, zerolog.Nop()),
	}
}

func TestIntegration_LoginListLogout(t *testing.T) {
	h := newHarness(t, "")
	h.portal.SetNotices(
		map[string]any{"orgaoEntidade": map[string]any{"cnpj": "12345678000199", "razaoSocial": "Prefeitura"}, "anoCompra": 2024, "numeroCompra": 0},
		map[string]any{"objeto": "sem identificação"},
	)
	h.portal.SetItems("12345678000199_2024_0", map[string]any{"numeroItem": 1, "descricao": "Arroz"})

	require.NoError(t, h.sessions.Start(context.Background()))
	assert.Equal(t, domain.StatusUnauthenticated, h.sessions.Session().Status)

	require.NoError(t, h.sessions.Login(context.Background(), domain.Credentials{Username: "maria", Password: "Senha@123"}))
	s := h.sessions.Session()
	require.True(t, s.Authenticated())
	assert.Equal(t, domain.SourceSession, s.Identity.Source)
	assert.Equal(t, "Maria Silva", s.Identity.DisplayName())

	notices, err := h.notices.List(context.Background())
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, "12345678000199_2024_0", notices[0].Key)
	assert.False(t, notices[1].Linkable())

	detail, err := h.notices.Get(context.Background(), notices[0].Key)
	require.NoError(t, err)
	assert.Equal(t, "Prefeitura", detail.LegalName)

	items, err := h.notices.Items(context.Background(), notices[0].Key)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Arroz", items[0].Description)

	_, err = h.notices.Get(context.Background(), "nao-existe")
	assert.Equal(t, "Edital não encontrado", domain.Message(err))

	require.NoError(t, h.sessions.Logout(context.Background()))
	assert.Equal(t, domain.StatusUnauthenticated, h.sessions.Session().Status)
	assert.Equal(t, 0, h.portal.ActiveSessions())

	_, err = h.notices.List(context.Background())
	assert.True(t, domain.IsUnauthorized(err))
}

func TestIntegration_WrongPassword(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.sessions.Start(context.Background()))

	err := h.sessions.Login(context.Background(), domain.Credentials{Username: "maria", Password: "errada"})
	require.Error(t, err)
	assert.True(t, domain.IsUnauthorized(err))
	assert.Equal(t, domain.StatusUnauthenticated, h.sessions.Session().Status)
	assert.NotEmpty(t, h.sessions.Session().LastError)
}

func TestIntegration_IdentityProviderFallback(t *testing.T) {
	p := portaltest.New()
	token, err := p.SignClerkToken("user_ext", "ext@example.com", "Ext User", time.Hour)
	p.Close()
	require.NoError(t, err)

	h := newHarness(t, token)
	require.NoError(t, h.sessions.Start(context.Background()))

	s := h.sessions.Session()
	require.True(t, s.Authenticated())
	assert.Equal(t, domain.SourceIdentityProvider, s.Identity.Source)
	assert.Equal(t, "user_ext", s.Identity.Subject)
	assert.Equal(t, "Ext User", s.Identity.DisplayName())

	require.NoError(t, h.sessions.Refresh(context.Background()))
	assert.Equal(t, 1, h.portal.Registrations("user_ext"))
	assert.Equal(t, 2, h.portal.Calls(portaltest.DefaultStatusPath))
}

func TestIntegration_ServerErrorKeepsSession(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.sessions.Login(context.Background(), domain.Credentials{Username: "maria", Password: "Senha@123"}))

	h.portal.FailNext("/api/status", http.StatusInternalServerError, `{"error":"banco indisponível"}`)
	err := h.sessions.Refresh(context.Background())
	assert.Equal(t, domain.KindServer, domain.KindOf(err))

	s := h.sessions.Session()
	assert.True(t, s.Authenticated())
	assert.Equal(t, "banco indisponível", s.LastError)
}

func TestIntegration_UpdateAndExport(t *testing.T) {
	h := newHarness(t, "")
	h.portal.SetExport("editais.xlsx", []byte("PK\x03\x04"))
	require.NoError(t, h.sessions.Login(context.Background(), domain.Credentials{Username: "maria", Password: "Senha@123"}))

	msg, err := h.notices.TriggerUpdate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Update started in background", msg)

	_, err = h.notices.TriggerUpdate(context.Background())
	assert.Equal(t, http.StatusConflict, statusOf(err))

	var buf bytes.Buffer
	n, err := h.notices.Export(context.Background(), domain.ExportXLSX, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	h.portal.RemoveExport("editais.csv")
	buf.Reset()
	n, err = h.notices.Export(context.Background(), domain.ExportCSV, &buf)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
}

func TestIntegration_Register(t *testing.T) {
	h := newHarness(t, "")
	reg := domain.Registration{
		Name:            "João Souza",
		Username:        "joao",
		Email:           "joao@example.com",
		Password:        "Senha@123",
		ConfirmPassword: "Senha@123",
	}
	require.NoError(t, h.sessions.Register(context.Background(), reg))

	err := h.sessions.Register(context.Background(), reg)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	require.NoError(t, h.sessions.Login(context.Background(), domain.Credentials{Username: "joao", Password: "Senha@123"}))
	assert.Equal(t, "João Souza", h.sessions.Session().Identity.Name)
}

func statusOf(err error) int {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
