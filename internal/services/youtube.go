// YouTube Music [HistoryService] implementation
//
// Communicates with the FastAPI proxy server wrapping the ytmusicapi Python library.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeHistoryItem is one entry of GET /api/library/history.
type YouTubeHistoryItem struct {
	VideoID  string          `json:"videoId"`
	Title    string          `json:"title"`
	Artists  []YouTubeArtist `json:"artists"`
	Album    *youtubeAlbum   `json:"album"`
	Duration string          `json:"duration"`
	Played   string          `json:"played"`
}

// Entry converts the proxy item to a [models.HistoryEntry].
func (i YouTubeHistoryItem) Entry() models.HistoryEntry {
	entry := models.HistoryEntry{
		VideoID: i.VideoID,
		Title:   i.Title,
		Played:  i.Played,
	}

	for _, a := range i.Artists {
		entry.Artists = append(entry.Artists, a.Name)
	}

	if i.Album != nil {
		entry.Album = i.Album.Name
	}

	return entry
}

// Health is the proxy's GET /health payload.
type Health struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Version       string `json:"version,omitempty"`
}

// YouTubeService implements [HistoryService] for YouTube Music via proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Music service instance.
//
// client may be an oauth2 client so every request carries the Google bearer token; nil uses [http.DefaultClient].
func NewYouTubeService(baseURL string, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &YouTubeService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Authenticate stores the authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to browser.json or oauth.json.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: missing auth_file in credentials", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	apiURL := y.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: youtube music proxy at %s: %v", shared.ErrServiceUnavailable, y.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		detail := fmt.Sprintf("status %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			detail = fmt.Sprintf("status %d: %s", resp.StatusCode, errResp.Detail)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: youtube music API error (%s)", shared.ErrAuthFailed, detail)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: youtube music API error (%s)", shared.ErrServiceUnavailable, detail)
		default:
			return fmt.Errorf("%w: youtube music API error (%s)", shared.ErrAPIRequest, detail)
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// History retrieves the account's watch history, newest first.
//
// Calls GET /api/library/history on the proxy.
func (y *YouTubeService) History(ctx context.Context) ([]models.HistoryEntry, error) {
	var items []YouTubeHistoryItem
	if err := y.doRequest(ctx, http.MethodGet, "/api/library/history", &items); err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, len(items))
	for i, item := range items {
		entries[i] = item.Entry()
	}

	return entries, nil
}

// Health reports whether the proxy is up and holds valid credentials.
//
// Calls GET /health on the proxy.
func (y *YouTubeService) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := y.doRequest(ctx, http.MethodGet, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}
