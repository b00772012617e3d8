// Package services implements the providers ytfm reconciles: YouTube Music as the source of candidate
// history and Last.fm as both the reference history and the scrobble sink.
//
// # Service Interfaces
//
// [Service] is the common surface. [HistoryService] adds the candidate watch history and
// [ScrobbleService] adds the reference history plus submission.
//
// # YouTube Music Implementation
//
// [YouTubeService] communicates with the FastAPI proxy server wrapping ytmusicapi.
// The auth_file path is sent via X-Auth-File header on each request. When a Google token is
// available the HTTP client is an [oauth2] client built by [GoogleAuth], whose token source
// writes refreshed tokens back to disk.
//
// # Last.fm Implementation
//
// [LastFMService] signs write calls with [Sign], pages user.getRecentTracks, and submits through
// track.scrobble. A [rate.Limiter] spaces every request.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : required credentials were not supplied
//   - [shared.ErrAuthFailed] : the provider refused the credentials
//   - [shared.ErrNotAuthenticated] : no session or token is available
//   - [shared.ErrServiceUnavailable] : the provider could not be reached or returned 5xx
//   - [shared.ErrAPIRequest] : the request failed or the response could not be decoded
//   - [shared.ErrScrobbleRejected] : Last.fm refused or ignored one scrobble
package services
