package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/ytfm/internal/server"
	"github.com/desertthunder/ytfm/internal/services"
	"github.com/desertthunder/ytfm/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// oauthTimeout bounds how long the callback server waits for the browser.
const oauthTimeout = 2 * time.Minute

// AuthGoogle performs the OAuth2 authorization flow for the YouTube Music proxy.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges the code for a token saved to token_path.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	yt := config.Credentials.YouTube
	auth, err := services.NewGoogleAuth(yt.ClientSecretPath, yt.TokenPath)
	if err != nil {
		return err
	}
	auth.SetRedirectURL(fmt.Sprintf("http://%s:%d/callback", config.Server.Host, config.Server.Port))

	token, err := r.doOAuth(ctx, config, auth)
	if err != nil {
		return err
	}

	if err := auth.SaveToken(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", yt.TokenPath)
	r.writePlain("You can now use: ytfm diff\n")

	return nil
}

// doOAuth serves the callback route until the browser returns, the timeout passes, or ctx is done.
func (r *Runner) doOAuth(ctx context.Context, config *shared.Config, auth *services.GoogleAuth) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := auth.AuthCodeURL(state)
	oauthHandler := server.NewOAuthHandler(auth, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth server", "addr", serverAddr, "routes", router.Routes())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Google authorization...\n")
	if err := shared.OpenBrowser(ctx, authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", oauthTimeout)

	timeout := time.NewTimer(oauthTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, oauthTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// AuthLastFM exchanges the configured username and password for a session key and stores it in the config file.
func (r *Runner) AuthLastFM(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, err := r.lastfmService(ctx, config)
	if err != nil {
		return err
	}

	if svc.SessionKey() == config.Credentials.LastFM.SessionKey {
		return r.writePlain("✓ Last.fm session already configured for %s\n", config.Credentials.LastFM.Username)
	}

	if err := r.saveSessionKey(svc.SessionKey()); err != nil {
		return err
	}
	r.logger.Info("saved last.fm session key", "path", r.configPath)

	r.writePlain("✓ Last.fm session obtained for %s\n", config.Credentials.LastFM.Username)
	if r.configPath != "" {
		r.writePlain("✓ Session key saved to %s\n", r.configPath)
		r.writePlain("The password can now be removed from the config.\n")
	}
	return nil
}

// AuthStatus reports proxy health, the Google token and the Last.fm session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("checking auth status")
	r.writePlainHeader("Authentication status")

	yt, err := r.youtubeService(ctx, config)
	if err != nil {
		r.writePlain("YouTube Music proxy: ✗ %v\n", err)
	} else if health, err := yt.Health(ctx); err != nil {
		r.writePlain("YouTube Music proxy: ✗ %v\n", err)
	} else {
		r.writePlain("YouTube Music proxy: ✓ %s\n", health.Status)
		if health.Authenticated {
			r.writePlain("Proxy authentication: ✓ Authenticated\n")
		} else {
			r.writePlain("Proxy authentication: ✗ Not authenticated\n")
		}
	}

	r.writePlain("Google token: %s\n", r.googleTokenStatus(config))

	lfm := config.Credentials.LastFM
	switch {
	case lfm.SessionKey != "":
		r.writePlain("Last.fm session: ✓ %s\n", lfm.Username)
	case lfm.Password != "":
		r.writePlain("Last.fm session: ✗ not saved, run `ytfm auth lastfm`\n")
	default:
		r.writePlain("Last.fm session: ✗ no session key or password\n")
	}

	return nil
}

func (r *Runner) googleTokenStatus(config *shared.Config) string {
	yt := config.Credentials.YouTube
	auth, err := services.NewGoogleAuth(yt.ClientSecretPath, yt.TokenPath)
	if err != nil {
		return fmt.Sprintf("✗ %v", err)
	}

	tok, err := auth.LoadToken()
	if err != nil {
		return fmt.Sprintf("✗ %v", err)
	}

	switch {
	case tok.Expiry.IsZero():
		return "✓ present"
	case tok.Expiry.After(r.now()):
		return fmt.Sprintf("✓ expires %s", humanize.RelTime(tok.Expiry, r.now(), "ago", "from now"))
	case tok.RefreshToken != "":
		return fmt.Sprintf("✓ expired %s, will refresh", humanize.RelTime(tok.Expiry, r.now(), "ago", "from now"))
	default:
		return fmt.Sprintf("✗ expired %s", humanize.RelTime(tok.Expiry, r.now(), "ago", "from now"))
	}
}
