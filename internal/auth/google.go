package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is the OpenID userinfo endpoint
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var (
	ErrGoogleDisabled   = errors.New("Google sign-in is not configured")
	ErrEmailNotVerified = errors.New("el email de Google no esta verificado")
)

// GoogleUser is the part of the userinfo response a profile needs
type GoogleUser struct {
	Email string
	Name  string
}

// Google wraps the OAuth2 client for Google sign-in
type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// NewGoogle returns nil when the client is not configured
func NewGoogle(cfg config.GoogleConfig) *Google {
	if !cfg.Enabled() {
		return nil
	}
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
	}
}

// NewState returns a random OAuth state value
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthCodeURL is where the browser is sent to consent
func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the code for a token and reads the account's email
func (g *Google) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned HTTP %d", resp.StatusCode)
	}

	info := gjson.ParseBytes(body)
	email := strings.ToLower(strings.TrimSpace(info.Get("email").String()))
	if email == "" {
		return nil, errors.New("userinfo has no email")
	}
	if !info.Get("email_verified").Bool() {
		return nil, ErrEmailNotVerified
	}
	return &GoogleUser{Email: email, Name: info.Get("name").String()}, nil
}
