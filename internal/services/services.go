// package services defines interfaces for the listening-history providers ytfm talks to
//
// YouTube Music (via proxy), Last.fm
package services

import (
	"context"

	"github.com/desertthunder/ytfm/internal/models"
)

// Service defines the common surface of every provider.
type Service interface {
	// Authenticate configures credentials for subsequent requests.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Name returns the name of the service (e.g., "Last.fm", "YouTube Music")
	Name() string
}

// HistoryService is a provider of candidate listening history.
type HistoryService interface {
	Service

	// History returns the user's watch history, newest first.
	History(ctx context.Context) ([]models.HistoryEntry, error)
}

// ScrobbleService is the reference history and the sink scrobbles are submitted to.
type ScrobbleService interface {
	Service

	// RecentTracks returns at most limit recorded plays, newest first.
	RecentTracks(ctx context.Context, limit int) ([]models.Play, error)

	// Scrobble submits a single play.
	//
	// Errors wrapping [shared.ErrScrobbleRejected] concern only this play.
	Scrobble(ctx context.Context, scrobble models.Scrobble) error
}
