package models

import (
	"strings"
	"time"
)

// UnknownArtist stands in for a history entry that lists no artist.
const UnknownArtist = "Unknown Artist"

// Play is a single listened track as an artist/title pair.
type Play struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// String renders the play as "Artist - Title".
func (p Play) String() string {
	return p.Artist + " - " + p.Title
}

// HistoryEntry is one item of the YouTube Music watch history, newest first as returned by the proxy.
type HistoryEntry struct {
	VideoID string   `json:"video_id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
	Played  string   `json:"played,omitempty"` // relative bucket such as "Today" or "Yesterday"
}

// PrimaryArtist returns the first listed artist, or [UnknownArtist] when none is usable.
func (e HistoryEntry) PrimaryArtist() string {
	if len(e.Artists) == 0 || strings.TrimSpace(e.Artists[0]) == "" {
		return UnknownArtist
	}
	return e.Artists[0]
}

// Play converts the entry to a [Play] using its primary artist and verbatim title.
func (e HistoryEntry) Play() Play {
	return Play{Artist: e.PrimaryArtist(), Title: e.Title}
}

// Scrobble is a [Play] with the unix timestamp it is submitted under.
//
// Scrobbles are built at submission time and never stored.
type Scrobble struct {
	Artist    string `json:"artist"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
}

// NewScrobble stamps p with ts.
func NewScrobble(p Play, ts int64) Scrobble {
	return Scrobble{Artist: p.Artist, Title: p.Title, Timestamp: ts}
}

// Time returns the timestamp as a UTC [time.Time].
func (s Scrobble) Time() time.Time {
	return time.Unix(s.Timestamp, 0).UTC()
}
