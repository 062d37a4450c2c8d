package portaltest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/normalizer"
)

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type listResponse struct {
	Total int              `json:"total"`
	Data  []map[string]any `json:"data"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, messageResponse{Status: "error", Message: msg})
}

func (p *Portal) login(c echo.Context) error {
	var req domain.Credentials
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}

	user, err := p.users.Verify(req.Username, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, ErrNoUsers) {
			status = http.StatusConflict
		}
		return fail(c, status, err.Error())
	}

	c.SetCookie(p.openSession(user.Username))
	return c.JSON(http.StatusOK, messageResponse{Status: "success", Message: "Login successful"})
}

func (p *Portal) logout(c echo.Context) error {
	if id, ok := c.Get("session_id").(string); ok {
		p.closeSession(id)
	}
	c.SetCookie(&http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	return c.JSON(http.StatusOK, messageResponse{Status: "success", Message: "Logged out"})
}

func (p *Portal) createUser(c echo.Context) error {
	var req domain.Registration
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if _, err := p.users.Create(strings.TrimSpace(req.Name), strings.TrimSpace(req.Username), req.Email, req.Password); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUserExists) || errors.Is(err, ErrEmailExists) {
			status = http.StatusConflict
		}
		return fail(c, status, err.Error())
	}
	return c.JSON(http.StatusOK, messageResponse{Status: "success", Message: "Usuário criado com sucesso."})
}

func (p *Portal) statusBody() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{
		"total_editais": len(p.notices),
		"last_update":   p.lastUpdate.Format("2006-01-02T15:04:05"),
		"scheduler":     map[string]any{"is_running": p.updating},
	}
}

func (p *Portal) status(c echo.Context) error {
	body := p.statusBody()
	username, _ := c.Get("username").(string)
	if u, ok := p.users.Get(username); ok {
		body["name"] = u.Name
		body["username"] = u.Username
		body["email"] = u.Email
	}
	return c.JSON(http.StatusOK, body)
}

func (p *Portal) listNotices(c echo.Context) error {
	p.mu.Lock()
	data := append([]map[string]any(nil), p.notices...)
	p.mu.Unlock()
	if data == nil {
		data = []map[string]any{}
	}
	return c.JSON(http.StatusOK, listResponse{Total: len(data), Data: data})
}

func (p *Portal) findNotice(key string) (map[string]any, bool) {
	if len(strings.Split(key, "_")) != 3 {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.notices {
		if normalizer.Key(domain.RawNotice(n)) == key {
			return n, true
		}
	}
	return nil, false
}

func (p *Portal) getNotice(c echo.Context) error {
	n, ok := p.findNotice(c.Param("key"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Edital não encontrado")
	}
	return c.JSON(http.StatusOK, map[string]any{"data": n})
}

func (p *Portal) listItems(c echo.Context) error {
	key := c.Param("key")
	if len(strings.Split(key, "_")) != 3 {
		return echo.NewHTTPError(http.StatusNotFound, "Edital não encontrado")
	}
	p.mu.Lock()
	items := append([]map[string]any(nil), p.items[key]...)
	p.mu.Unlock()
	if items == nil {
		items = []map[string]any{}
	}
	return c.JSON(http.StatusOK, listResponse{Total: len(items), Data: items})
}

func (p *Portal) triggerUpdate(c echo.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.updating {
		return c.JSON(http.StatusConflict, messageResponse{Status: "error", Message: "Update already in progress"})
	}
	p.updating = true
	return c.JSON(http.StatusOK, messageResponse{Status: "success", Message: "Update started in background"})
}

func (p *Portal) download(c echo.Context) error {
	name := c.Param("filename")
	p.mu.Lock()
	content, ok := p.exports[name]
	p.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, content)
}

func (p *Portal) clerkStatus(c echo.Context) error {
	body := p.statusBody()
	body["sub"], _ = c.Get("sub").(string)
	body["email"], _ = c.Get("email").(string)
	body["name"], _ = c.Get("name").(string)
	return c.JSON(http.StatusOK, body)
}

func (p *Portal) clerkRegister(c echo.Context) error {
	sub, _ := c.Get("sub").(string)
	if sub == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing subject")
	}
	p.mu.Lock()
	p.registrations[sub]++
	p.mu.Unlock()
	return c.JSON(http.StatusOK, messageResponse{Status: "success", Message: "registered"})
}
