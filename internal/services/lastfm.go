// Last.fm API implementation of [ScrobbleService]
//
// API reference: https://www.last.fm/api
package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
	"golang.org/x/time/rate"
)

const (
	lastfmBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// maximum page size accepted by user.getRecentTracks
	lastfmPageSize = 200

	defaultRequestsPerSecond = 5.0
)

// flexInt decodes numbers Last.fm sends either as JSON numbers or as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// LastFMError is an error payload returned by the API.
type LastFMError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *LastFMError) Error() string {
	return fmt.Sprintf("last.fm error %d: %s", e.Code, e.Message)
}

type lastfmText struct {
	Text string `json:"#text"`
}

// LastFMTrack is a track from user.getRecentTracks.
type LastFMTrack struct {
	Name   string     `json:"name"`
	Artist lastfmText `json:"artist"`
	Album  lastfmText `json:"album"`
	Date   *struct {
		UTS flexInt `json:"uts"`
	} `json:"date,omitempty"`
	Attr *struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr,omitempty"`
}

// NowPlaying reports whether the track is the currently playing entry, which has no scrobble behind it.
func (t LastFMTrack) NowPlaying() bool {
	return t.Attr != nil && t.Attr.NowPlaying == "true"
}

// lastfmTracks accepts both the array form and the single-object form used for one-item pages.
type lastfmTracks []LastFMTrack

func (l *lastfmTracks) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '{' {
		var one LastFMTrack
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*l = lastfmTracks{one}
		return nil
	}
	var many []LastFMTrack
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

type recentTracksResponse struct {
	RecentTracks struct {
		Track lastfmTracks `json:"track"`
		Attr  struct {
			Page       flexInt `json:"page"`
			TotalPages flexInt `json:"totalPages"`
			Total      flexInt `json:"total"`
		} `json:"@attr"`
	} `json:"recenttracks"`
}

type scrobbleResponse struct {
	Scrobbles struct {
		Attr struct {
			Accepted flexInt `json:"accepted"`
			Ignored  flexInt `json:"ignored"`
		} `json:"@attr"`
		Scrobble struct {
			IgnoredMessage struct {
				Code flexInt `json:"code"`
				Text string  `json:"#text"`
			} `json:"ignoredMessage"`
		} `json:"scrobble"`
	} `json:"scrobbles"`
}

type sessionResponse struct {
	Session struct {
		Name string `json:"name"`
		Key  string `json:"key"`
	} `json:"session"`
}

// LastFMService implements [ScrobbleService] against the Last.fm web service.
//
// Every request waits on a shared [rate.Limiter].
type LastFMService struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	username   string
	password   string
	sessionKey string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewLastFMService creates a Last.fm client from credentials with keys api_key, api_secret, username,
// and optionally password and session_key.
func NewLastFMService(credentials map[string]string) (*LastFMService, error) {
	apiKey, ok := credentials["api_key"]
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("%w: missing api_key in credentials", shared.ErrMissingCredentials)
	}

	apiSecret, ok := credentials["api_secret"]
	if !ok || apiSecret == "" {
		return nil, fmt.Errorf("%w: missing api_secret in credentials", shared.ErrMissingCredentials)
	}

	return &LastFMService{
		baseURL:    lastfmBaseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		username:   credentials["username"],
		password:   credentials["password"],
		sessionKey: credentials["session_key"],
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
	}, nil
}

// WithBaseURL points the client at another API root.
func (l *LastFMService) WithBaseURL(baseURL string) *LastFMService {
	l.baseURL = baseURL
	return l
}

// WithHTTPClient replaces the HTTP client.
func (l *LastFMService) WithHTTPClient(client *http.Client) *LastFMService {
	if client != nil {
		l.httpClient = client
	}
	return l
}

// WithRateLimit caps requests per second. Non-positive values disable limiting.
func (l *LastFMService) WithRateLimit(rps float64) *LastFMService {
	if rps <= 0 {
		l.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		l.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return l
}

// Name returns the service name.
func (l *LastFMService) Name() string {
	return "Last.fm"
}

// SessionKey returns the session key obtained by [LastFMService.Authenticate], if any.
func (l *LastFMService) SessionKey() string {
	return l.sessionKey
}

// Authenticate establishes a session.
//
// A session_key in credentials (or one supplied at construction) is used as is. Otherwise
// username and password are exchanged for one through auth.getMobileSession.
func (l *LastFMService) Authenticate(ctx context.Context, credentials map[string]string) error {
	for key, dst := range map[string]*string{
		"username":    &l.username,
		"password":    &l.password,
		"session_key": &l.sessionKey,
	} {
		if v := credentials[key]; v != "" {
			*dst = v
		}
	}

	if l.sessionKey != "" {
		return nil
	}

	if l.username == "" || l.password == "" {
		return fmt.Errorf("%w: last.fm needs a session_key or username and password", shared.ErrMissingCredentials)
	}

	params := url.Values{}
	params.Set("method", "auth.getMobileSession")
	params.Set("username", l.username)
	params.Set("password", l.password)

	var resp sessionResponse
	if err := l.call(ctx, http.MethodPost, params, &resp); err != nil {
		var apiErr *LastFMError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, apiErr)
		}
		return err
	}

	if resp.Session.Key == "" {
		return fmt.Errorf("%w: last.fm returned an empty session", shared.ErrAuthFailed)
	}

	l.sessionKey = resp.Session.Key
	return nil
}

// RecentTracks pages through user.getRecentTracks until limit plays are collected or history runs out.
//
// The now-playing entry is skipped.
func (l *LastFMService) RecentTracks(ctx context.Context, limit int) ([]models.Play, error) {
	if l.username == "" {
		return nil, fmt.Errorf("%w: last.fm username is required", shared.ErrMissingCredentials)
	}
	if limit <= 0 {
		return []models.Play{}, nil
	}

	plays := make([]models.Play, 0, limit)
	for page := 1; len(plays) < limit; page++ {
		params := url.Values{}
		params.Set("method", "user.getRecentTracks")
		params.Set("user", l.username)
		params.Set("limit", strconv.Itoa(min(limit, lastfmPageSize)))
		params.Set("page", strconv.Itoa(page))

		var resp recentTracksResponse
		if err := l.call(ctx, http.MethodGet, params, &resp); err != nil {
			return nil, err
		}

		tracks := resp.RecentTracks.Track
		for _, tr := range tracks {
			if tr.NowPlaying() {
				continue
			}
			plays = append(plays, models.Play{Artist: tr.Artist.Text, Title: tr.Name})
			if len(plays) == limit {
				break
			}
		}

		if len(tracks) == 0 || page >= int(resp.RecentTracks.Attr.TotalPages) {
			break
		}
	}

	return plays, nil
}

// Scrobble submits one play through track.scrobble.
//
// API error payloads and ignored scrobbles wrap [shared.ErrScrobbleRejected]. Transport
// and decoding failures do not.
func (l *LastFMService) Scrobble(ctx context.Context, s models.Scrobble) error {
	if l.sessionKey == "" {
		return fmt.Errorf("%w: last.fm session required to scrobble", shared.ErrNotAuthenticated)
	}

	params := url.Values{}
	params.Set("method", "track.scrobble")
	params.Set("artist", s.Artist)
	params.Set("track", s.Title)
	params.Set("timestamp", strconv.FormatInt(s.Timestamp, 10))
	params.Set("sk", l.sessionKey)

	var resp scrobbleResponse
	if err := l.call(ctx, http.MethodPost, params, &resp); err != nil {
		var apiErr *LastFMError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %v", shared.ErrScrobbleRejected, apiErr)
		}
		return err
	}

	if resp.Scrobbles.Attr.Ignored > 0 || resp.Scrobbles.Attr.Accepted == 0 {
		msg := resp.Scrobbles.Scrobble.IgnoredMessage.Text
		if msg == "" {
			msg = fmt.Sprintf("ignored (code %d)", resp.Scrobbles.Scrobble.IgnoredMessage.Code)
		}
		return fmt.Errorf("%w: %s", shared.ErrScrobbleRejected, msg)
	}

	return nil
}

// Sign computes api_sig: the md5 of every parameter as key+value in key order followed by the secret.
// format and callback are not signed.
func Sign(params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "format" || k == "callback" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params.Get(k))
	}
	b.WriteString(secret)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// call performs a signed request and decodes the JSON body into result.
//
// Error payloads come back as [*LastFMError] whatever the HTTP status.
func (l *LastFMService) call(ctx context.Context, method string, params url.Values, result any) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("api_key", l.apiKey)
	if method == http.MethodPost {
		params.Set("api_sig", Sign(params, l.apiSecret))
	}
	params.Set("format", "json")

	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, l.baseURL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, l.baseURL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ytfm")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: last.fm: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	var apiErr LastFMError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		return &apiErr
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: last.fm status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: last.fm status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}
