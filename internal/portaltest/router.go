package portaltest

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/editais-pncp/portal-client/internal/core/validation"
)

// errorResponse is the error envelope of the portal.
type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func newRouter(p *Portal) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = httpErrorHandler

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(p.failureInjector)

	// --- First-party auth ---
	e.POST("/login", p.login)
	e.POST("/logout", p.logout, p.requireSession)
	e.POST("/users/new", p.createUser)

	// --- Session protected API ---
	api := e.Group("/api", p.requireSession)
	api.GET("/status", p.status)
	api.GET("/editais", p.listNotices)
	api.GET("/editais/:key", p.getNotice)
	api.GET("/editais/:key/itens", p.listItems)
	api.POST("/trigger-update", p.triggerUpdate)
	e.GET("/download/:filename", p.download, p.requireSession)

	// --- Identity provider ---
	e.GET(DefaultStatusPath, p.clerkStatus, p.requireBearer)
	e.POST(DefaultRegisterPath, p.clerkRegister, p.requireBearer)

	return e
}

// httpErrorHandler renders every error as {"status": "error", "error": "<message>"}.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		msg = fmt.Sprintf("%v", he.Message)
	}
	_ = c.JSON(code, errorResponse{Status: "error", Error: msg})
}
