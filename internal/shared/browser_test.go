package shared

import (
	"context"
	"errors"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	const consent = "https://accounts.google.com/o/oauth2/auth?state=abc"

	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
		{"windows", "rundll32"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, consent)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.want {
				t.Errorf("command = %q, want %q", name, tt.want)
			}
			if args[len(args)-1] != consent {
				t.Errorf("expected URL as last argument, got %v", args)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		if _, _, err := browserCommand("plan9", consent); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("rejects non-http URLs", func(t *testing.T) {
		for _, raw := range []string{"file:///etc/passwd", "javascript:alert(1)", "not a url", "https://"} {
			if _, _, err := browserCommand("linux", raw); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, got %v", raw, err)
			}
		}
	})
}

func TestOpenBrowserCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := OpenBrowser(ctx, "https://example.com"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
