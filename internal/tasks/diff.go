package tasks

import (
	"slices"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
)

// HistorySet is the set of normalized keys already recorded on the reference service.
type HistorySet map[shared.TrackKey]struct{}

// NewHistorySet normalizes every play of reference into a [HistorySet].
func NewHistorySet(reference []models.Play) HistorySet {
	set := make(HistorySet, len(reference))
	for _, p := range reference {
		set[shared.NormalizeTrack(p.Artist, p.Title)] = struct{}{}
	}
	return set
}

// Contains reports whether p normalizes to a key in the set.
func (h HistorySet) Contains(p models.Play) bool {
	_, ok := h[shared.NormalizeTrack(p.Artist, p.Title)]
	return ok
}

// Diff returns the candidate plays missing from reference, oldest first.
//
// candidate is newest first as the provider returns it. Each entry is reduced to its primary
// artist (or [models.UnknownArtist]) and verbatim title; kept plays are not otherwise altered.
// Repeated plays of the same song are all kept.
func Diff(reference []models.Play, candidate []models.HistoryEntry) []models.Play {
	seen := NewHistorySet(reference)

	backlog := make([]models.Play, 0, len(candidate))
	for _, entry := range candidate {
		play := entry.Play()
		if seen.Contains(play) {
			continue
		}
		backlog = append(backlog, play)
	}

	slices.Reverse(backlog)
	return backlog
}
