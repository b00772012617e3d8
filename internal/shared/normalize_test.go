package shared

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCleanText(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "lower case", in: "Bohemian Rhapsody", want: "bohemian rhapsody"},
		{name: "parenthesized annotation", in: "Bohemian Rhapsody (Official Video)", want: "bohemian rhapsody"},
		{name: "bracketed annotation", in: "Song X [Lyric Video]", want: "song x"},
		{name: "mixed brackets", in: "Song (live] version", want: "song version"},
		{name: "non-greedy removal", in: "A (x) B (y) C", want: "a b c"},
		{name: "bare noise words", in: "Song X Official Audio", want: "song x"},
		{name: "noise words need word boundaries", in: "Videotape Audiophile", want: "videotape audiophile"},
		{name: "noise word next to hyphen", in: "visualizer-Song", want: "-song"},
		{name: "accents", in: "Beyoncé", want: "beyonce"},
		{name: "punctuation", in: "Don't Stop Me Now!", want: "dont stop me now"},
		{name: "keeps hyphen and underscore", in: "Jay-Z feat_x", want: "jay-z feat_x"},
		{name: "collapses whitespace", in: "  a \t\n b  ", want: "a b"},
		{name: "symbols only", in: "!!! ??? ***", want: ""},
		{name: "annotation only", in: "(Official Video)", want: ""},
		{name: "keeps featuring suffix", in: "Song feat. Artist2", want: "song feat artist2"},
		{name: "noise word exposed by accent stripping", in: "Vidéo", want: ""},
		{name: "noise word exposed by punctuation", in: "vid.eo clip", want: "clip"},
		{name: "non latin letters", in: "東京事変 (Live)", want: "東京事変"},
		{name: "digits", in: "99 Luftballons", want: "99 luftballons"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTrack(t *testing.T) {
	t.Run("annotation equivalence", func(t *testing.T) {
		a := NormalizeTrack("Queen", "Bohemian Rhapsody (Official Video)")
		b := NormalizeTrack("Queen", "Bohemian Rhapsody")
		if a != b {
			t.Errorf("expected equal keys, got %+v and %+v", a, b)
		}
	})

	t.Run("accent insensitivity", func(t *testing.T) {
		a := NormalizeTrack("Beyoncé", "Halo")
		b := NormalizeTrack("Beyonce", "Halo")
		if a != b {
			t.Errorf("expected equal keys, got %+v and %+v", a, b)
		}
	})

	t.Run("artist and title are cleaned independently", func(t *testing.T) {
		got := NormalizeTrack("Artist A (VEVO)", "Song X (Audio)")
		want := TrackKey{Artist: "artist a", Title: "song x"}
		if got != want {
			t.Errorf("NormalizeTrack() = %+v, want %+v", got, want)
		}
	})

	t.Run("different songs stay different", func(t *testing.T) {
		if NormalizeTrack("Artist", "Song A") == NormalizeTrack("Artist", "Song B") {
			t.Error("expected different keys")
		}
	})
}

// fragments biased towards the things CleanText strips
var textFragments = []string{
	"Queen", "Beyoncé", "Halo", "official", "VIDEO", "Audio", "lyric", "visualizer",
	"(", ")", "[", "]", "(Official Video)", "[Live]", " ", "  ", "\t", "-", "_", ".", "!",
	"é", "ñ", "ü", "é", "vid", "eo", "東京", "99", "feat.", "'", "&", "Ω",
}

func genText() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(textFragments)-1)).Map(func(idx []int) string {
		var b strings.Builder
		for _, i := range idx {
			b.WriteString(textFragments[i])
		}
		return b.String()
	})
}

func TestCleanTextProperties(t *testing.T) {
	p := gopter.NewProperties(nil)

	p.Property("idempotent", prop.ForAll(func(in string) bool {
		once := CleanText(in)
		return CleanText(once) == once
	}, genText()))

	p.Property("idempotent on arbitrary strings", prop.ForAll(func(in string) bool {
		once := CleanText(in)
		return CleanText(once) == once
	}, gen.AnyString()))

	p.Property("no brackets, upper case or padding survive", prop.ForAll(func(in string) bool {
		out := CleanText(in)
		if strings.ContainsAny(out, "()[]") {
			return false
		}
		if out != strings.ToLower(out) {
			return false
		}
		return out == strings.TrimSpace(out) && !strings.Contains(out, "  ")
	}, genText()))

	p.Property("appending an annotation does not change the key", prop.ForAll(func(in string) bool {
		base := CleanText(in)
		return CleanText(base+" (Official Video)") == base
	}, gen.AlphaString()))

	p.TestingRun(t)
}
