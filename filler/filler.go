// Package filler counts filler words in transcript text.
package filler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type category struct {
	name string
	re   *regexp.Regexp
}

// Categories in reporting order.
var categories = []category{
	{"um", regexp.MustCompile(`(?i)\bum\b|\bumm\b|\bhmm\b`)},
	{"uh", regexp.MustCompile(`(?i)\buh\b|\buuh\b|\bahh\b|\baah\b`)},
	{"er", regexp.MustCompile(`(?i)\ber\b|\berr\b`)},
	{"ah", regexp.MustCompile(`(?i)\bah\b`)},
	{"oh", regexp.MustCompile(`(?i)\boh\b|\booh\b`)},
	{"mmm", regexp.MustCompile(`(?i)\bmmm\b|\bmm\b|\bmhm\b`)},
	{"like", regexp.MustCompile(`(?i)\blike\b`)},
	{"you_know", regexp.MustCompile(`(?i)\byou\s+know\b`)},
	{"i_mean", regexp.MustCompile(`(?i)\bi\s+mean\b`)},
	{"basically", regexp.MustCompile(`(?i)\bbasically\b`)},
	{"actually", regexp.MustCompile(`(?i)\bactually\b`)},
	{"literally", regexp.MustCompile(`(?i)\bliterally\b`)},
	{"right", regexp.MustCompile(`(?i)\bright\b`)},
	{"so", regexp.MustCompile(`(?i)\bso\b`)},
	{"yeah", regexp.MustCompile(`(?i)\byeah\b|\byeaah\b`)},
}

const topFillers = 5

// Result is the filler usage of one speaker.
type Result struct {
	SpeakerID string
	Counts    map[string]int // only categories that occur
	Total     int
	WordCount int
	Ratio     float64 // fillers per 100 words
}

// Analyze counts every filler category in text. The ratio is 0 when text
// has no words.
func Analyze(text, speakerID string) Result {
	r := Result{SpeakerID: speakerID, Counts: map[string]int{}, WordCount: len(strings.Fields(text))}
	for _, c := range categories {
		if n := len(c.re.FindAllStringIndex(text, -1)); n > 0 {
			r.Counts[c.name] = n
			r.Total += n
		}
	}
	if r.WordCount > 0 {
		r.Ratio = float64(r.Total) / float64(r.WordCount) * 100
	}
	return r
}

type Rank struct {
	SpeakerID string
	Total     int
	Ratio     float64
}

type Summary struct {
	Total        int
	AverageRatio float64
	MostCommon   map[string]int // top five categories meeting-wide
	Ranking      []Rank         // by Total, most first
}

// Summarize aggregates per-speaker results. Ties in the ranking keep the
// input order; ties among categories keep the category order.
func Summarize(rs []Result) Summary {
	s := Summary{MostCommon: map[string]int{}, Ranking: []Rank{}}
	if len(rs) == 0 {
		return s
	}
	all := map[string]int{}
	var ratios float64
	for _, r := range rs {
		s.Total += r.Total
		ratios += r.Ratio
		for k, n := range r.Counts {
			all[k] += n
		}
		s.Ranking = append(s.Ranking, Rank{SpeakerID: r.SpeakerID, Total: r.Total, Ratio: r.Ratio})
	}
	s.AverageRatio = ratios / float64(len(rs))
	sort.SliceStable(s.Ranking, func(i, j int) bool { return s.Ranking[i].Total > s.Ranking[j].Total })

	names := make([]string, 0, len(all))
	for _, c := range categories {
		if all[c.name] > 0 {
			names = append(names, c.name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool { return all[names[i]] > all[names[j]] })
	for _, n := range names[:min(topFillers, len(names))] {
		s.MostCommon[n] = all[n]
	}
	return s
}

// Insights renders the speaker ranking, one line per speaker.
func (s Summary) Insights() []string {
	out := make([]string, 0, len(s.Ranking))
	for i, r := range s.Ranking {
		out = append(out, fmt.Sprintf("%d. %s - %d fillers (%.1f%%)", i+1, r.SpeakerID, r.Total, r.Ratio))
	}
	return out
}
