package login

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/notesphere/notes-gateway/internal/utils"
)

// Status is what the browser learns about the session, the tokens themselves stay on the server.
type Status struct {
	SignedIn  bool       `json:"signed_in"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (l *LoginServer) PostLogin(c echo.Context) error {
	body := models.EmailPassword{}
	if err := c.Bind(&body); err != nil {
		return err
	}
	ctx := utils.ContextWithEchoRequestID(c)
	_, err := l.auth.Login(ctx, body.Email, body.Password)
	if err != nil {
		return respondWithError(c, err)
	}
	return l.GetStatus(c)
}

func (l *LoginServer) PostRegister(c echo.Context) error {
	body := models.EmailPassword{}
	if err := c.Bind(&body); err != nil {
		return err
	}
	ctx := utils.ContextWithEchoRequestID(c)
	_, err := l.auth.Register(ctx, body.Email, body.Password)
	if err != nil {
		return respondWithError(c, err)
	}
	return l.GetStatus(c)
}

// PostLogout always ends the local session, a failing backend logout is only logged.
func (l *LoginServer) PostLogout(c echo.Context) error {
	ctx := utils.ContextWithEchoRequestID(c)
	err := l.auth.Logout(ctx)
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		slog.Warn("LOGIN", "message", "the backend did not accept the logout", "requestID", utils.GetRequestID(c), "error", err)
	} else if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Status{SignedIn: false})
}

func (l *LoginServer) PostPasswordResetRequest(c echo.Context) error {
	body := models.PasswordResetRequest{}
	if err := c.Bind(&body); err != nil {
		return err
	}
	msg, err := l.auth.RequestPasswordReset(utils.ContextWithEchoRequestID(c), body.Email)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (l *LoginServer) PostPasswordResetVerify(c echo.Context) error {
	body := models.PasswordResetVerify{}
	if err := c.Bind(&body); err != nil {
		return err
	}
	msg, err := l.auth.ResetPassword(utils.ContextWithEchoRequestID(c), body.Code, body.Password)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (l *LoginServer) GetStatus(c echo.Context) error {
	pair, err := l.credentials.Credentials(c.Request().Context())
	if err != nil {
		return err
	}
	status := Status{SignedIn: !pair.Empty()}
	if expiresAt, err := pair.AccessExpiry(); err == nil {
		status.ExpiresAt = &expiresAt
	}
	return c.JSON(http.StatusOK, status)
}

// GetSocialLogin sends the browser to the backend, which runs the flow with the provider.
func (l *LoginServer) GetSocialLogin(c echo.Context) error {
	loginURL, err := l.auth.SocialLoginURL(c.Param("provider"))
	if errors.Is(err, gwerrors.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, loginURL)
}

// GetSocialCallback exchanges the code sent back by the backend and lands the browser in the app.
// Failures send the browser back to the login entry point.
func (l *LoginServer) GetSocialCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "the code query parameter is required")
	}
	provider := c.Param("provider")
	_, err := l.auth.SocialToken(utils.ContextWithEchoRequestID(c), provider, code)
	if err != nil {
		slog.Error("LOGIN", "message", "the social code exchange failed", "provider", provider, "requestID", utils.GetRequestID(c), "error", err)
		return c.Redirect(http.StatusFound, l.loginEntryWithError("social_login_failed"))
	}
	return c.Redirect(http.StatusFound, l.config.AppRedirectURL)
}

func (l *LoginServer) loginEntryWithError(reason string) string {
	entry, err := url.Parse(l.config.LoginEntryPath)
	if err != nil {
		return l.config.LoginEntryPath
	}
	query := entry.Query()
	query.Set("error", reason)
	entry.RawQuery = query.Encode()
	return entry.String()
}

// respondWithError passes backend errors on with their status, anything else means the backend
// could not be reached.
func respondWithError(c echo.Context, err error) error {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadGateway
		}
		return c.JSON(status, apiErr)
	}
	slog.Error("LOGIN", "message", "the request to the backend failed", "requestID", utils.GetRequestID(c), "error", err)
	return echo.NewHTTPError(http.StatusBadGateway, "the notes backend cannot be reached")
}
