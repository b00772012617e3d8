package tasks

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
)

// DefaultHintThreshold is the minimum Jaro-Winkler similarity reported as a near miss.
const DefaultHintThreshold = 0.85

// NearMiss pairs a backlog play with the most similar play already on the reference service.
type NearMiss struct {
	Play    models.Play `json:"play"`
	Closest models.Play `json:"closest"`
	Score   float64     `json:"score"`
}

// NearMisses scores each backlog play against every reference play by Jaro-Winkler similarity
// of their normalized keys and reports those whose best score reaches threshold.
//
// Hints only explain the backlog; they never remove anything from it.
func NearMisses(backlog, reference []models.Play, threshold float64) []NearMiss {
	if len(backlog) == 0 || len(reference) == 0 {
		return nil
	}

	metric := metrics.NewJaroWinkler()
	metric.CaseSensitive = false

	type keyed struct {
		play models.Play
		key  string
	}

	refs := make([]keyed, 0, len(reference))
	seen := make(map[string]struct{}, len(reference))
	for _, p := range reference {
		k := keyString(shared.NormalizeTrack(p.Artist, p.Title))
		if _, dup := seen[k]; dup || k == "" {
			continue
		}
		seen[k] = struct{}{}
		refs = append(refs, keyed{play: p, key: k})
	}

	var hints []NearMiss
	for _, p := range backlog {
		k := keyString(shared.NormalizeTrack(p.Artist, p.Title))
		if k == "" {
			continue
		}

		best := NearMiss{Play: p}
		for _, r := range refs {
			if score := strutil.Similarity(k, r.key, metric); score > best.Score {
				best.Score = score
				best.Closest = r.play
			}
		}

		if best.Score >= threshold {
			hints = append(hints, best)
		}
	}

	return hints
}

func keyString(k shared.TrackKey) string {
	return strings.TrimSpace(k.Artist + " " + k.Title)
}
