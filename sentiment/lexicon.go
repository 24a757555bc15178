package sentiment

import (
	"regexp"
	"sort"
	"strings"
)

type indicator struct {
	re     *regexp.Regexp
	weight float64
}

// lexicon matches each weighted term once, however often it occurs.
type lexicon []indicator

func newLexicon(words map[string]float64) lexicon {
	terms := make([]string, 0, len(words))
	for w := range words {
		terms = append(terms, w)
	}
	sort.Strings(terms)
	lx := make(lexicon, 0, len(terms))
	for _, w := range terms {
		pattern := `(?i)\b` + strings.Join(strings.Fields(regexp.QuoteMeta(w)), `\s+`) + `\b`
		lx = append(lx, indicator{re: regexp.MustCompile(pattern), weight: words[w]})
	}
	return lx
}

func (lx lexicon) score(text string) float64 {
	var sum float64
	for _, ind := range lx {
		if ind.re.MatchString(text) {
			sum += ind.weight
		}
	}
	return sum
}

var (
	positive = newLexicon(map[string]float64{
		"great": 2, "excellent": 2, "amazing": 2, "wonderful": 2, "fantastic": 2,
		"love": 1.5, "good": 1, "nice": 1, "happy": 1.5, "glad": 1.5,
		"brilliant": 2, "awesome": 2, "perfect": 1.5,
		"interesting": 0.5, "cool": 1, "fun": 1, "enjoy": 1.5,
	})
	negative = newLexicon(map[string]float64{
		"terrible": -2, "awful": -2, "horrible": -2, "hate": -2, "bad": -1,
		"poor": -1, "wrong": -1, "sad": -1.5, "angry": -1.5, "frustrated": -1.5,
		"difficult": -0.5, "hard": -0.5, "problem": -0.5, "issue": -0.5, "concerned": -0.5,
	})
	engaged = newLexicon(map[string]float64{
		"agree": 1, "absolutely": 1, "definitely": 1, "exactly": 1, "right": 0.5,
		"understand": 0.5, "know": 0.5, "think": 0.5, "believe": 0.5, "feel": 0.5,
	})
	disengaged = newLexicon(map[string]float64{
		"whatever": -1, "dunno": -0.5, "maybe": -0.5, "probably": -0.5, "guess": -0.5,
		"not sure": -0.5, "confused": -1, "lost": -1,
	})
)
