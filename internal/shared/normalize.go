package shared

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TrackKey is the comparison key of a track: artist and title after [CleanText].
//
// Equal keys mean "probably the same song". The match is approximate: annotations
// such as "feat. X" survive cleaning, and distinct songs can collide.
type TrackKey struct {
	Artist string
	Title  string
}

var (
	// either opener up to the nearest closer of either kind
	annotationPattern = regexp.MustCompile(`[(\[].*?[)\]]`)
	wordPattern       = regexp.MustCompile(`[\p{L}\p{N}_]+`)

	noiseWords = map[string]struct{}{
		"official":   {},
		"video":      {},
		"audio":      {},
		"lyric":      {},
		"visualizer": {},
	}
)

// NormalizeTrack builds the [TrackKey] for an artist/title pair.
func NormalizeTrack(artist, title string) TrackKey {
	return TrackKey{Artist: CleanText(artist), Title: CleanText(title)}
}

// CleanText lower-cases s, strips bracketed annotations, noise words, accents and
// punctuation, and collapses whitespace. It never fails; symbol-only input yields "".
//
// The output is a fixed point: CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	s = strings.ToLower(s)
	s = annotationPattern.ReplaceAllString(s, "")
	s = stripNoiseWords(s)
	s = stripMarks(s)
	s = strings.Map(keepWordRune, s)
	s = collapseSpace(s)

	// accent and punctuation removal can expose a noise word ("vidéo", "vid.eo")
	return collapseSpace(stripNoiseWords(s))
}

func stripNoiseWords(s string) string {
	return wordPattern.ReplaceAllStringFunc(s, func(word string) string {
		if _, ok := noiseWords[word]; ok {
			return ""
		}
		return word
	})
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func keepWordRune(r rune) rune {
	switch {
	case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsSpace(r):
		return r
	case r == '_' || r == '-':
		return r
	default:
		return -1
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
