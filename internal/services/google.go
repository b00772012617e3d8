// Google OAuth for the YouTube Music proxy
//
// The installed-app client secret JSON downloaded from the Google Cloud console is read directly,
// and tokens are persisted as JSON next to the config.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/ytfm/internal/shared"
	"golang.org/x/oauth2"
)

const (
	youtubeScope = "https://www.googleapis.com/auth/youtube"

	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

type clientSecretEntry struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

// clientSecretFile mirrors the console download, which nests credentials under "installed" or "web".
type clientSecretFile struct {
	Installed *clientSecretEntry `json:"installed"`
	Web       *clientSecretEntry `json:"web"`
}

// GoogleAuth manages the Google OAuth client and the token file.
type GoogleAuth struct {
	config    *oauth2.Config
	tokenPath string
}

// NewGoogleAuth reads the client secret at clientSecretPath. Tokens are stored at tokenPath.
func NewGoogleAuth(clientSecretPath, tokenPath string) (*GoogleAuth, error) {
	data, err := os.ReadFile(clientSecretPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: client secret not found at %s", shared.ErrMissingCredentials, clientSecretPath)
		}
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}

	config, err := ConfigFromClientSecret(data)
	if err != nil {
		return nil, err
	}

	return &GoogleAuth{config: config, tokenPath: tokenPath}, nil
}

// ConfigFromClientSecret builds an [oauth2.Config] from a client secret JSON document.
func ConfigFromClientSecret(data []byte) (*oauth2.Config, error) {
	var file clientSecretFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: client secret: %v", shared.ErrInvalidConfig, err)
	}

	entry := file.Installed
	if entry == nil {
		entry = file.Web
	}
	if entry == nil || entry.ClientID == "" || entry.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client secret has no installed or web client", shared.ErrInvalidConfig)
	}

	config := &oauth2.Config{
		ClientID:     entry.ClientID,
		ClientSecret: entry.ClientSecret,
		Scopes:       []string{youtubeScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}
	if entry.AuthURI != "" {
		config.Endpoint.AuthURL = entry.AuthURI
	}
	if entry.TokenURI != "" {
		config.Endpoint.TokenURL = entry.TokenURI
	}
	if len(entry.RedirectURIs) > 0 {
		config.RedirectURL = entry.RedirectURIs[0]
	}

	return config, nil
}

// Config exposes the underlying OAuth2 configuration.
func (g *GoogleAuth) Config() *oauth2.Config {
	return g.config
}

// SetRedirectURL points the authorization flow at the local callback server.
func (g *GoogleAuth) SetRedirectURL(redirectURL string) {
	g.config.RedirectURL = redirectURL
}

// AuthCodeURL returns the consent page URL, requesting a refresh token.
func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func (g *GoogleAuth) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return g.config.Exchange(ctx, code, opts...)
}

// LoadToken reads the stored token. A missing or unreadable file yields [shared.ErrNotAuthenticated].
func (g *GoogleAuth) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(g.tokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no google token at %s, run `ytfm auth google`", shared.ErrNotAuthenticated, g.tokenPath)
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: token file %s is invalid: %v", shared.ErrNotAuthenticated, g.tokenPath, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s is empty", shared.ErrNotAuthenticated, g.tokenPath)
	}

	return &tok, nil
}

// SaveToken writes tok to the token path with owner-only permissions.
func (g *GoogleAuth) SaveToken(tok *oauth2.Token) error {
	data, err := shared.MarshalJSON(tok, true)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if dir := filepath.Dir(g.tokenPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	if err := os.WriteFile(g.tokenPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// TokenSource returns a source that refreshes tok as needed and writes every new token back to disk.
func (g *GoogleAuth) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return &persistingTokenSource{
		base: g.config.TokenSource(ctx, tok),
		save: g.SaveToken,
		last: tok.AccessToken,
	}
}

// Client returns an HTTP client authorized with the stored token.
func (g *GoogleAuth) Client(ctx context.Context) (*http.Client, error) {
	tok, err := g.LoadToken()
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, g.TokenSource(ctx, tok)), nil
}

type persistingTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	save func(*oauth2.Token) error
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	if tok.AccessToken != p.last {
		if err := p.save(tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}

	return tok, nil
}
