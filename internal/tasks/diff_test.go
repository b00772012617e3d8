package tasks

import (
	"testing"

	"github.com/desertthunder/ytfm/internal/models"
)

func entry(title string, artists ...string) models.HistoryEntry {
	return models.HistoryEntry{Title: title, Artists: artists}
}

func TestDiff(t *testing.T) {
	t.Run("keeps unseen plays oldest first", func(t *testing.T) {
		reference := []models.Play{{Artist: "Artist A", Title: "Song X"}}
		candidate := []models.HistoryEntry{
			entry("Song Z", "Artist C"),
			entry("Song X (Official Video)", "Artist A"),
			entry("Song Y", "Artist B"),
		}

		got := Diff(reference, candidate)
		want := []models.Play{
			{Artist: "Artist B", Title: "Song Y"},
			{Artist: "Artist C", Title: "Song Z"},
		}

		if len(got) != len(want) {
			t.Fatalf("expected %d plays, got %d: %v", len(want), len(got), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("play %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("title is carried verbatim", func(t *testing.T) {
		got := Diff(nil, []models.HistoryEntry{entry("Bohemian Rhapsody (Official Video)", "Queen")})
		if len(got) != 1 || got[0].Title != "Bohemian Rhapsody (Official Video)" {
			t.Errorf("unexpected backlog %v", got)
		}
	})

	t.Run("first artist only", func(t *testing.T) {
		reference := []models.Play{{Artist: "Artist A", Title: "Duet"}}
		got := Diff(reference, []models.HistoryEntry{entry("Duet", "Artist A", "Artist B")})
		if len(got) != 0 {
			t.Errorf("expected match on primary artist, got %v", got)
		}
	})

	t.Run("unknown artist fallback", func(t *testing.T) {
		got := Diff(nil, []models.HistoryEntry{entry("Mystery")})
		if len(got) != 1 || got[0].Artist != models.UnknownArtist {
			t.Errorf("unexpected backlog %v", got)
		}
	})

	t.Run("empty candidate", func(t *testing.T) {
		got := Diff([]models.Play{{Artist: "a", Title: "b"}}, nil)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil backlog, got %#v", got)
		}
	})

	t.Run("fully synced", func(t *testing.T) {
		reference := []models.Play{
			{Artist: "Beyonce", Title: "Halo"},
			{Artist: "Queen", Title: "Bohemian Rhapsody"},
		}
		candidate := []models.HistoryEntry{
			entry("Halo [Lyric Video]", "Beyoncé"),
			entry("Bohemian Rhapsody (Official Video)", "Queen"),
		}
		if got := Diff(reference, candidate); len(got) != 0 {
			t.Errorf("expected nothing to do, got %v", got)
		}
	})

	t.Run("repeat plays are all kept", func(t *testing.T) {
		candidate := []models.HistoryEntry{entry("Loop", "A"), entry("Loop", "A")}
		if got := Diff(nil, candidate); len(got) != 2 {
			t.Errorf("expected 2 plays, got %d", len(got))
		}
	})

	t.Run("does not mutate inputs", func(t *testing.T) {
		candidate := []models.HistoryEntry{entry("One", "A"), entry("Two", "B")}
		Diff(nil, candidate)
		if candidate[0].Title != "One" || candidate[1].Title != "Two" {
			t.Errorf("candidate reordered: %v", candidate)
		}
	})
}

func TestHistorySet(t *testing.T) {
	set := NewHistorySet([]models.Play{{Artist: "Queen", Title: "Bohemian Rhapsody"}})

	if !set.Contains(models.Play{Artist: "QUEEN", Title: "Bohemian Rhapsody (Official Audio)"}) {
		t.Error("expected normalized match")
	}
	if set.Contains(models.Play{Artist: "Queen", Title: "Under Pressure"}) {
		t.Error("unexpected match")
	}
}
