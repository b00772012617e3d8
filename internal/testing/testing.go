// Package testing contains shared test doubles and assertions.
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
)

// MockHistoryService is a test double for services.HistoryService
type MockHistoryService struct {
	Entries  []models.HistoryEntry
	Err      error
	AuthErr  error
	Calls    int
	AuthArgs map[string]string
}

func (m *MockHistoryService) Name() string { return "mock-history" }

func (m *MockHistoryService) Authenticate(ctx context.Context, credentials map[string]string) error {
	m.AuthArgs = credentials
	return m.AuthErr
}

func (m *MockHistoryService) History(ctx context.Context) ([]models.HistoryEntry, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entries, nil
}

// MockScrobbleService is a test double for services.ScrobbleService.
//
// Reject maps a submission index to the error returned for it; errors not wrapping
// shared.ErrScrobbleRejected act as fatal failures.
type MockScrobbleService struct {
	Recent    []models.Play
	RecentErr error
	AuthErr   error
	Reject    map[int]error
	Submitted []models.Scrobble
	Attempts  int
	LastLimit int
	mu        sync.Mutex
}

func (m *MockScrobbleService) Name() string { return "mock-scrobbler" }

func (m *MockScrobbleService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.AuthErr
}

func (m *MockScrobbleService) RecentTracks(ctx context.Context, limit int) ([]models.Play, error) {
	m.LastLimit = limit
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	if limit < len(m.Recent) {
		return m.Recent[:limit], nil
	}
	return m.Recent, nil
}

func (m *MockScrobbleService) Scrobble(ctx context.Context, s models.Scrobble) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.Attempts
	m.Attempts++
	if err, ok := m.Reject[i]; ok {
		return err
	}
	m.Submitted = append(m.Submitted, s)
	return nil
}

// Rejection returns an error wrapping shared.ErrScrobbleRejected.
func Rejection(msg string) error {
	return fmt.Errorf("%w: %s", shared.ErrScrobbleRejected, msg)
}

// MockConfirmer answers every confirmation with Answer and Err, counting calls.
type MockConfirmer struct {
	Answer  bool
	Err     error
	Calls   int
	Backlog []models.Play
}

func (m *MockConfirmer) Confirm(ctx context.Context, backlog []models.Play) (bool, error) {
	m.Calls++
	m.Backlog = backlog
	return m.Answer, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
