package notesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/notesphere/notes-gateway/internal/authclient"
	"github.com/notesphere/notes-gateway/internal/credentials"
	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/notesphere/notes-gateway/internal/utils"
)

// AuthService signs the user in and out. Every pair it obtains is written to the credential store.
type AuthService struct {
	api              authclient.Doer
	store            credentials.Store
	httpClient       *http.Client
	socialBaseURL    *url.URL
	socialLoginPaths map[string]string
}

type AuthServiceOption func(*AuthService) error

func WithSocialBaseURL(socialBaseURL *url.URL) AuthServiceOption {
	return func(a *AuthService) error {
		a.socialBaseURL = socialBaseURL
		return nil
	}
}

func WithSocialLoginPaths(paths map[string]string) AuthServiceOption {
	return func(a *AuthService) error {
		a.socialLoginPaths = paths
		return nil
	}
}

// WithPlainHTTPClient sets the client used for the social endpoints, which are not part of the versioned API.
func WithPlainHTTPClient(httpClient *http.Client) AuthServiceOption {
	return func(a *AuthService) error {
		a.httpClient = httpClient
		return nil
	}
}

func NewAuthService(api authclient.Doer, store credentials.Store, options ...AuthServiceOption) (*AuthService, error) {
	if api == nil || store == nil {
		return &AuthService{}, fmt.Errorf("the auth service needs an api client and a credential store")
	}
	a := &AuthService{api: api, store: store, httpClient: http.DefaultClient, socialLoginPaths: map[string]string{}}
	for _, opt := range options {
		err := opt(a)
		if err != nil {
			return &AuthService{}, err
		}
	}
	return a, nil
}

func (a *AuthService) storeTokens(ctx context.Context, tokens models.TokenResponse) (models.CredentialPair, error) {
	pair := tokens.Pair()
	if pair.Empty() {
		return models.CredentialPair{}, fmt.Errorf("the backend did not return an access token")
	}
	err := a.store.Set(ctx, pair)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("cannot store the credentials: %w", err)
	}
	return pair, nil
}

func (a *AuthService) Login(ctx context.Context, email, password string) (models.CredentialPair, error) {
	var tokens models.TokenResponse
	err := callJSON(ctx, a.api, http.MethodPost, "/auth/login", models.EmailPassword{Email: email, Password: password}, &tokens)
	if err != nil {
		return models.CredentialPair{}, err
	}
	return a.storeTokens(ctx, tokens)
}

func (a *AuthService) Register(ctx context.Context, email, password string) (models.CredentialPair, error) {
	var tokens models.TokenResponse
	err := callJSON(ctx, a.api, http.MethodPost, "/auth/register", models.EmailPassword{Email: email, Password: password}, &tokens)
	if err != nil {
		return models.CredentialPair{}, err
	}
	return a.storeTokens(ctx, tokens)
}

// Logout revokes the refresh token. The stored pair is cleared even when the backend call fails,
// in which case the backend error is returned after clearing.
func (a *AuthService) Logout(ctx context.Context) error {
	pair, err := a.store.Get(ctx)
	if err != nil {
		return err
	}
	var backendErr error
	if pair.RefreshToken != "" {
		backendErr = callJSON(ctx, a.api, http.MethodPost, "/auth/logout", models.RefreshTokenBody{RefreshToken: pair.RefreshToken}, nil)
		if backendErr != nil {
			slog.Warn("AUTH SERVICE", "message", "the backend logout failed, clearing the credentials anyway", "error", backendErr)
		}
	}
	err = a.store.Clear(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	return backendErr
}

// SocialLoginURL is where the browser has to go to start the login with a social provider.
func (a *AuthService) SocialLoginURL(provider string) (string, error) {
	path, ok := a.socialLoginPaths[provider]
	if !ok {
		return "", fmt.Errorf("social provider %q: %w", provider, gwerrors.ErrNotFound)
	}
	if a.socialBaseURL == nil {
		return "", fmt.Errorf("the social login base url is not configured")
	}
	return a.socialBaseURL.JoinPath(path).String(), nil
}

// SocialToken exchanges the code received on the social callback for a credential pair.
func (a *AuthService) SocialToken(ctx context.Context, provider, code string) (models.CredentialPair, error) {
	if a.socialBaseURL == nil {
		return models.CredentialPair{}, fmt.Errorf("the social login base url is not configured")
	}
	body, err := json.Marshal(models.SocialCode{Code: code})
	if err != nil {
		return models.CredentialPair{}, err
	}
	tokenURL := a.socialBaseURL.JoinPath("api", "auth", provider, "token")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL.String(), bytes.NewReader(body))
	if err != nil {
		return models.CredentialPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", utils.RequestID(ctx))
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return models.CredentialPair{}, err
	}
	defer resp.Body.Close()
	var tokens models.TokenResponse
	err = decodeResponse(resp, &tokens)
	if err != nil {
		return models.CredentialPair{}, err
	}
	return a.storeTokens(ctx, tokens)
}

func (a *AuthService) RequestPasswordReset(ctx context.Context, email string) (models.Message, error) {
	var msg models.Message
	err := callJSON(ctx, a.api, http.MethodPost, "/auth/password-reset/request", models.PasswordResetRequest{Email: email}, &msg)
	return msg, err
}

func (a *AuthService) ResetPassword(ctx context.Context, code, password string) (models.Message, error) {
	var msg models.Message
	err := callJSON(ctx, a.api, http.MethodPost, "/auth/password-reset/verify", models.PasswordResetVerify{Code: code, Password: password}, &msg)
	return msg, err
}
