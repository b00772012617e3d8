package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
)

func testCredentials() map[string]string {
	return map[string]string{
		"api_key":    "key",
		"api_secret": "secret",
		"username":   "listener",
	}
}

func newTestLastFM(t *testing.T, handler http.HandlerFunc) *LastFMService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLastFMService(testCredentials())
	if err != nil {
		t.Fatalf("NewLastFMService() error = %v", err)
	}
	return svc.WithBaseURL(server.URL).WithHTTPClient(server.Client()).WithRateLimit(0)
}

func TestSign(t *testing.T) {
	params := url.Values{}
	params.Set("method", "auth.getMobileSession")
	params.Set("username", "u")
	params.Set("api_key", "k")
	params.Set("format", "json")

	// api_keyk + methodauth.getMobileSession + usernameu + secret
	want := "0de68b27accda4c43e3e486069abea35"
	got := Sign(params, "s")

	if got != want {
		t.Fatalf("Sign() = %q, want %q", got, want)
	}

	withoutFormat := url.Values{}
	withoutFormat.Set("method", "auth.getMobileSession")
	withoutFormat.Set("username", "u")
	withoutFormat.Set("api_key", "k")
	if Sign(withoutFormat, "s") != got {
		t.Error("format must not change the signature")
	}

	withoutFormat.Set("callback", "cb")
	if Sign(withoutFormat, "s") != got {
		t.Error("callback must not change the signature")
	}

	if Sign(params, "other") == got {
		t.Error("secret must change the signature")
	}
}

func TestLastFMService(t *testing.T) {
	t.Run("NewLastFMService", func(t *testing.T) {
		t.Run("requires api key", func(t *testing.T) {
			_, err := NewLastFMService(map[string]string{"api_secret": "s"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("requires api secret", func(t *testing.T) {
			_, err := NewLastFMService(map[string]string{"api_key": "k"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("name", func(t *testing.T) {
			svc, _ := NewLastFMService(testCredentials())
			if svc.Name() != "Last.fm" {
				t.Errorf("unexpected name %s", svc.Name())
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("uses existing session key", func(t *testing.T) {
			svc := newTestLastFM(t, func(http.ResponseWriter, *http.Request) {
				t.Error("no request expected")
			})

			if err := svc.Authenticate(context.Background(), map[string]string{"session_key": "sk"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.SessionKey() != "sk" {
				t.Errorf("expected session key sk, got %s", svc.SessionKey())
			}
		})

		t.Run("mobile session", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if err := r.ParseForm(); err != nil {
					t.Fatal(err)
				}
				if r.PostForm.Get("method") != "auth.getMobileSession" {
					t.Errorf("unexpected method %s", r.PostForm.Get("method"))
				}
				if r.PostForm.Get("api_sig") == "" {
					t.Error("expected api_sig")
				}
				fmt.Fprint(w, `{"session":{"name":"listener","key":"fresh-key","subscriber":0}}`)
			})

			err := svc.Authenticate(context.Background(), map[string]string{"password": "pw"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.SessionKey() != "fresh-key" {
				t.Errorf("expected fresh-key, got %s", svc.SessionKey())
			}
		})

		t.Run("bad password", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"error":4,"message":"Authentication Failed"}`)
			})

			err := svc.Authenticate(context.Background(), map[string]string{"password": "wrong"})
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("nothing to authenticate with", func(t *testing.T) {
			svc := newTestLastFM(t, func(http.ResponseWriter, *http.Request) {})

			err := svc.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("RecentTracks", func(t *testing.T) {
		t.Run("pages and skips now playing", func(t *testing.T) {
			pages := map[string]string{
				"1": `{"recenttracks":{"track":[
					{"name":"Live Now","artist":{"#text":"Artist Z"},"@attr":{"nowplaying":"true"}},
					{"name":"Song B","artist":{"#text":"Artist B"},"date":{"uts":"1700000100"}},
					{"name":"Song A","artist":{"#text":"Artist A"},"date":{"uts":"1700000000"}}
				],"@attr":{"page":"1","totalPages":"2","total":"3"}}}`,
				"2": `{"recenttracks":{"track":{"name":"Song 0","artist":{"#text":"Artist 0"},"date":{"uts":"1690000000"}},
				"@attr":{"page":"2","totalPages":"2","total":"3"}}}`,
			}

			var calls int
			svc := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				q := r.URL.Query()
				if q.Get("method") != "user.getRecentTracks" || q.Get("user") != "listener" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				fmt.Fprint(w, pages[q.Get("page")])
			})

			plays, err := svc.RecentTracks(context.Background(), 500)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := []models.Play{
				{Artist: "Artist B", Title: "Song B"},
				{Artist: "Artist A", Title: "Song A"},
				{Artist: "Artist 0", Title: "Song 0"},
			}
			if len(plays) != len(want) {
				t.Fatalf("expected %d plays, got %d: %v", len(want), len(plays), plays)
			}
			for i := range want {
				if plays[i] != want[i] {
					t.Errorf("play %d = %+v, want %+v", i, plays[i], want[i])
				}
			}
			if calls != 2 {
				t.Errorf("expected 2 requests, got %d", calls)
			}
		})

		t.Run("stops at limit", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("limit"); got != "2" {
					t.Errorf("expected page size 2, got %s", got)
				}
				fmt.Fprint(w, `{"recenttracks":{"track":[
					{"name":"a","artist":{"#text":"x"}},
					{"name":"b","artist":{"#text":"x"}},
					{"name":"c","artist":{"#text":"x"}}
				],"@attr":{"page":"1","totalPages":"9"}}}`)
			})

			plays, err := svc.RecentTracks(context.Background(), 2)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(plays) != 2 {
				t.Errorf("expected 2 plays, got %d", len(plays))
			}
		})

		t.Run("empty history", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"recenttracks":{"track":[],"@attr":{"page":"1","totalPages":"0","total":"0"}}}`)
			})

			plays, err := svc.RecentTracks(context.Background(), 500)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(plays) != 0 {
				t.Errorf("expected no plays, got %d", len(plays))
			}
		})

		t.Run("api error", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":6,"message":"User not found"}`)
			})

			_, err := svc.RecentTracks(context.Background(), 10)
			var apiErr *LastFMError
			if !errors.As(err, &apiErr) || apiErr.Code != 6 {
				t.Errorf("expected LastFMError 6, got %v", err)
			}
		})

		t.Run("service down", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			})

			_, err := svc.RecentTracks(context.Background(), 10)
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("Scrobble", func(t *testing.T) {
		scrobble := models.Scrobble{Artist: "Queen", Title: "Bohemian Rhapsody", Timestamp: 1_700_000_000}

		t.Run("requires session", func(t *testing.T) {
			svc := newTestLastFM(t, func(http.ResponseWriter, *http.Request) {})

			err := svc.Scrobble(context.Background(), scrobble)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("accepted", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Fatal(err)
				}
				form := r.PostForm
				if form.Get("method") != "track.scrobble" || form.Get("sk") != "sk" {
					t.Errorf("unexpected form %v", form)
				}
				if form.Get("artist") != "Queen" || form.Get("track") != "Bohemian Rhapsody" {
					t.Errorf("unexpected track %v", form)
				}
				if form.Get("timestamp") != strconv.Itoa(1_700_000_000) {
					t.Errorf("unexpected timestamp %s", form.Get("timestamp"))
				}

				signed := url.Values{}
				for k, v := range form {
					if k != "api_sig" {
						signed[k] = v
					}
				}
				if form.Get("api_sig") != Sign(signed, "secret") {
					t.Error("signature mismatch")
				}

				fmt.Fprint(w, `{"scrobbles":{"@attr":{"accepted":1,"ignored":0},"scrobble":{"ignoredMessage":{"code":"0","#text":""}}}}`)
			})
			svc.Authenticate(context.Background(), map[string]string{"session_key": "sk"})

			if err := svc.Scrobble(context.Background(), scrobble); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("ignored is rejected", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"scrobbles":{"@attr":{"accepted":"0","ignored":"1"},"scrobble":{"ignoredMessage":{"code":"1","#text":"Artist was ignored"}}}}`)
			})
			svc.Authenticate(context.Background(), map[string]string{"session_key": "sk"})

			err := svc.Scrobble(context.Background(), scrobble)
			if !errors.Is(err, shared.ErrScrobbleRejected) {
				t.Errorf("expected ErrScrobbleRejected, got %v", err)
			}
		})

		t.Run("api error is rejected", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":6,"message":"Invalid parameters"}`)
			})
			svc.Authenticate(context.Background(), map[string]string{"session_key": "sk"})

			err := svc.Scrobble(context.Background(), scrobble)
			if !errors.Is(err, shared.ErrScrobbleRejected) {
				t.Errorf("expected ErrScrobbleRejected, got %v", err)
			}
		})

		t.Run("transport failure is not a rejection", func(t *testing.T) {
			svc := newTestLastFM(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				fmt.Fprint(w, "<html>bad gateway</html>")
			})
			svc.Authenticate(context.Background(), map[string]string{"session_key": "sk"})

			err := svc.Scrobble(context.Background(), scrobble)
			if errors.Is(err, shared.ErrScrobbleRejected) {
				t.Errorf("expected a fatal error, got rejection %v", err)
			}
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("cancelled context", func(t *testing.T) {
			svc := newTestLastFM(t, func(http.ResponseWriter, *http.Request) {})
			svc.Authenticate(context.Background(), map[string]string{"session_key": "sk"})

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := svc.Scrobble(ctx, scrobble)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})
}
