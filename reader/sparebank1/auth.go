package sparebank1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	sb1ynab "github.com/bjorngi/sparebank1-to-ynab"
	"github.com/bjorngi/sparebank1-to-ynab/internal/log"
)

const authBase = "https://api-auth.sparebank1.no/oauth"

// RedirectURL must match the redirect URI registered with SpareBank1 for the
// consent flow.
const RedirectURL = "http://localhost:9050"

// Auth obtains SpareBank1 access tokens. The bank rotates the refresh token
// on every use, so the new one is written back to the configured file after
// each grant; INITIAL_REFRESH_TOKEN from setup seeds the first run.
type Auth struct {
	Config sb1ynab.SpareBank1

	// BaseURL of the OAuth endpoints, overridable in tests
	BaseURL    string
	HTTPClient *http.Client
	logger     *slog.Logger
}

// NewAuth returns an Auth for the given settings
func NewAuth(cfg sb1ynab.SpareBank1) *Auth {
	return &Auth{
		Config:  cfg,
		BaseURL: authBase,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default().With("reader", "sparebank1"),
	}
}

// Tokens is the banks token grant response
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refreshToken returns the stored refresh token, falling back to the initial
// token from setup when the file does not exist yet.
func (a *Auth) refreshToken() string {
	file, err := os.ReadFile(a.Config.RefreshTokenPath)
	if err != nil {
		a.logger.Debug("no refresh token file, using initial token", "path", a.Config.RefreshTokenPath)
		return a.Config.InitialRefreshToken
	}
	return strings.TrimSpace(string(file))
}

// AccessToken exchanges the stored refresh token for an access token and
// persists the rotated refresh token for the next run.
func (a *Auth) AccessToken(ctx context.Context) (string, error) {
	tokens, err := a.grant(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {a.refreshToken()},
		"client_id":     {a.Config.ClientID},
		"client_secret": {a.Config.ClientSecret},
	})
	if err != nil {
		return "", sb1ynab.AuthError{Err: err}
	}

	if err := os.WriteFile(a.Config.RefreshTokenPath, []byte(tokens.RefreshToken), 0600); err != nil {
		return "", sb1ynab.AuthError{Err: fmt.Errorf("saving refresh token: %w", err)}
	}
	a.logger.Debug("rotated refresh token", "path", a.Config.RefreshTokenPath)
	return tokens.AccessToken, nil
}

// Exchange trades an authorization code from the consent flow for tokens.
// Used by cmd/setup, which persists the refresh token itself.
func (a *Auth) Exchange(ctx context.Context, code, state string) (Tokens, error) {
	tokens, err := a.grant(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"state":         {state},
		"redirect_uri":  {RedirectURL},
		"client_id":     {a.Config.ClientID},
		"client_secret": {a.Config.ClientSecret},
	})
	if err != nil {
		return Tokens{}, sb1ynab.AuthError{Err: err}
	}
	return tokens, nil
}

// AuthorizeURL returns the browser URL that starts the consent flow
func (a *Auth) AuthorizeURL(state string) string {
	query := url.Values{
		"client_id":     {a.Config.ClientID},
		"state":         {state},
		"redirect_uri":  {RedirectURL},
		"finInst":       {a.Config.FinInst},
		"response_type": {"code"},
	}
	return a.BaseURL + "/authorize?" + query.Encode()
}

func (a *Auth) grant(ctx context.Context, form url.Values) (Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := a.HTTPClient.Do(req)
	if err != nil {
		return Tokens{}, sb1ynab.RemoteError{API: "sparebank1", Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes))
	if err != nil {
		return Tokens{}, sb1ynab.RemoteError{API: "sparebank1", StatusCode: response.StatusCode, Err: err}
	}
	// The body holds credentials, keep it out of the logs
	log.Trace(a.logger, "token response", "status", response.StatusCode)

	if response.StatusCode != http.StatusOK {
		return Tokens{}, sb1ynab.RemoteError{API: "sparebank1", StatusCode: response.StatusCode, Body: string(body)}
	}

	var tokens Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return Tokens{}, sb1ynab.RemoteError{API: "sparebank1", Err: fmt.Errorf("parsing token response: %w", err)}
	}
	if tokens.AccessToken == "" {
		return Tokens{}, sb1ynab.RemoteError{API: "sparebank1", StatusCode: response.StatusCode, Body: string(body), Err: fmt.Errorf("token response without access_token")}
	}
	return tokens, nil
}
