package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytfm/internal/shared"
)

func TestHistoryEntry(t *testing.T) {
	tc := []struct {
		name  string
		entry HistoryEntry
		want  Play
	}{
		{
			name:  "first artist wins",
			entry: HistoryEntry{Title: "Song X (Official Video)", Artists: []string{"Artist A", "Artist B"}},
			want:  Play{Artist: "Artist A", Title: "Song X (Official Video)"},
		},
		{
			name:  "no artists",
			entry: HistoryEntry{Title: "Mystery Track"},
			want:  Play{Artist: UnknownArtist, Title: "Mystery Track"},
		},
		{
			name:  "blank first artist",
			entry: HistoryEntry{Title: "Song", Artists: []string{"  "}},
			want:  Play{Artist: UnknownArtist, Title: "Song"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Play(); got != tt.want {
				t.Errorf("Play() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScrobble(t *testing.T) {
	s := NewScrobble(Play{Artist: "Queen", Title: "Bohemian Rhapsody"}, 1_700_000_000)
	if s.Artist != "Queen" || s.Title != "Bohemian Rhapsody" {
		t.Errorf("unexpected scrobble %+v", s)
	}
	if got := s.Time(); !got.Equal(time.Unix(1_700_000_000, 0)) || got.Location() != time.UTC {
		t.Errorf("Time() = %v", got)
	}
}

func TestRun(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("new run is running and valid", func(t *testing.T) {
		r := NewRun(1, true, false, start)
		if r.Status() != RunStatusRunning {
			t.Errorf("expected running, got %s", r.Status())
		}
		if err := r.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
		if r.Duration() != 0 {
			t.Errorf("expected zero duration while running, got %v", r.Duration())
		}
	})

	t.Run("finish sets status and duration", func(t *testing.T) {
		r := NewRun(1, false, false, start)
		r.SetCounts(3, 2, 1)
		r.Finish(RunStatusCompleted, "", start.Add(12*time.Minute))

		if r.Status() != RunStatusCompleted {
			t.Errorf("expected completed, got %s", r.Status())
		}
		if r.Duration() != 12*time.Minute {
			t.Errorf("Duration() = %v", r.Duration())
		}
		if err := r.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tc := []struct {
			name  string
			build func() *Run
		}{
			{name: "unknown status", build: func() *Run {
				r := NewRun(1, false, false, start)
				r.SetStatus("bogus")
				return r
			}},
			{name: "negative counter", build: func() *Run {
				r := NewRun(1, false, false, start)
				r.SetCounts(-1, 0, 0)
				return r
			}},
			{name: "outcomes exceed found", build: func() *Run {
				r := NewRun(1, false, false, start)
				r.SetCounts(1, 1, 1)
				return r
			}},
			{name: "missing start", build: func() *Run {
				return NewRun(1, false, false, time.Time{})
			}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if err := tt.build().Validate(); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})
}

func TestRunFailure(t *testing.T) {
	play := Play{Artist: "Artist A", Title: "Song X"}

	t.Run("valid", func(t *testing.T) {
		f := NewRunFailure("run-1", 2, play, "track ignored")
		if err := f.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
		if f.Play() != play {
			t.Errorf("Play() = %+v, want %+v", f.Play(), play)
		}
	})

	t.Run("missing run", func(t *testing.T) {
		if err := NewRunFailure("", 0, play, "x").Validate(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing reason", func(t *testing.T) {
		if err := NewRunFailure("run-1", 0, play, "").Validate(); err == nil {
			t.Error("expected error")
		}
	})
}
