// Package auth handles the Google OAuth flow for the calendar
// collaborator: client secrets and the cached token live under the
// application config directory, and first-time authorization runs a
// local redirect server.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	applog "pwkm/pkg/log"
)

const (
	// ClientSecretsFile holds the downloaded Google API credentials
	// (client_id, client_secret, redirect_uris).
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the obtained OAuth token (access + refresh).
	TokenFile = "gcal_token.json"

	// localAuthPort is where the local server listens for the OAuth
	// redirect during first-time authorization.
	localAuthPort = "6789"

	xdgAppName = "pwkm"
)

// ConfigDir returns the directory holding credentials and the token cache.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// TokenPath returns the token cache location.
func TokenPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TokenFile), nil
}

// oauthConfig builds an oauth2.Config from the client secrets file.
func oauthConfig(scopes []string) (*oauth2.Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	secrets := filepath.Join(dir, ClientSecretsFile)
	b, err := os.ReadFile(secrets)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secrets %s: %w", secrets, err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secrets: %w", err)
	}
	// Force a loopback redirect on our port regardless of what the
	// credentials file declares; the local server below must match.
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", localAuthPort)
	return cfg, nil
}

// Client returns an authenticated HTTP client, refreshing a cached token
// or running the interactive authorization flow when none exists.
func Client(ctx context.Context, scopes []string) (*http.Client, error) {
	cfg, err := oauthConfig(scopes)
	if err != nil {
		return nil, err
	}
	tokenPath, err := TokenPath()
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		applog.Info("no cached token, starting authorization flow", "path", tokenPath)
		tok, err = tokenFromWeb(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("authorization failed: %w", err)
		}
		if err := saveToken(tokenPath, tok); err != nil {
			applog.Error("could not cache token", err, "path", tokenPath)
		}
	}
	return cfg.Client(ctx, tok), nil
}

// CalendarService builds an authenticated read-only Calendar API service.
func CalendarService(ctx context.Context) (*calendar.Service, error) {
	client, err := Client(ctx, []string{calendar.CalendarReadonlyScope})
	if err != nil {
		return nil, err
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to build calendar service: %w", err)
	}
	return srv, nil
}

// tokenFromWeb runs the authorization-code flow with a local redirect
// server capturing the code.
func tokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", ":"+localAuthPort)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %s: %w", localAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code missing from redirect")
				return
			}
			fmt.Fprint(w, "Authentication successful. You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open this URL in your browser to authorize pwkm:\n%s\n", authURL)

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return cfg.Exchange(exchangeCtx, code)
	case err := <-errCh:
		return nil, err
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
