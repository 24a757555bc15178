package align

import (
	"sort"
	"strings"
	"unicode"

	"github.com/maastricht-university/meeting-engagement/model"
)

const maxKeywords = 10

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "that": {}, "this": {}, "with": {}, "from": {},
	"have": {}, "what": {}, "when": {}, "where": {}, "which": {},
}

// TextStats are simple lexical statistics over a speaker's transcript.
type TextStats struct {
	Words       int
	UniqueWords int
	Questions   int
	Keywords    []string
}

// SpeakerText is everything one speaker said, in order.
type SpeakerText struct {
	SpeakerID  string
	Transcript string
	WordCount  int
	Segments   []model.TranscriptSegment
	Stats      TextStats
}

// SpeakerTexts groups aligned text by speaker, keeping the order in which
// speakers first appear.
type SpeakerTexts struct {
	order []string
	byID  map[string]*SpeakerText
}

// BySpeaker joins the aligned text of each speaker with single spaces.
// Speakers with no text are still present with an empty transcript.
func BySpeaker(aligned []Aligned) *SpeakerTexts {
	st := &SpeakerTexts{byID: map[string]*SpeakerText{}}
	parts := map[string][]string{}
	for _, a := range aligned {
		sp, ok := st.byID[a.SpeakerID]
		if !ok {
			sp = &SpeakerText{SpeakerID: a.SpeakerID}
			st.byID[a.SpeakerID] = sp
			st.order = append(st.order, a.SpeakerID)
		}
		if a.Text == "" {
			continue
		}
		parts[a.SpeakerID] = append(parts[a.SpeakerID], a.Text)
		sp.WordCount += a.WordCount
		sp.Segments = append(sp.Segments, model.TranscriptSegment{Start: a.Start, End: a.End, Text: a.Text})
	}
	for id, sp := range st.byID {
		sp.Transcript = strings.Join(parts[id], " ")
		sp.Stats = Stats(sp.Transcript)
	}
	return st
}

func (s *SpeakerTexts) IDs() []string { return append([]string(nil), s.order...) }

// Get returns the speaker's text, or an empty entry for an unknown speaker.
func (s *SpeakerTexts) Get(id string) SpeakerText {
	if sp, ok := s.byID[id]; ok {
		return *sp
	}
	return SpeakerText{SpeakerID: id}
}

// Stats counts words, distinct lowercase words and question marks, and picks
// up to ten keywords: distinct words longer than five letters that are not
// stop words, in alphabetical order.
func Stats(text string) TextStats {
	words := strings.Fields(text)
	if len(words) == 0 {
		return TextStats{}
	}
	unique := map[string]struct{}{}
	kw := map[string]struct{}{}
	for _, w := range words {
		lw := strings.ToLower(w)
		unique[lw] = struct{}{}
		bare := strings.TrimFunc(lw, unicode.IsPunct)
		if _, stop := stopWords[bare]; len([]rune(bare)) > 5 && !stop {
			kw[bare] = struct{}{}
		}
	}
	keywords := make([]string, 0, len(kw))
	for k := range kw {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return TextStats{
		Words:       len(words),
		UniqueWords: len(unique),
		Questions:   strings.Count(text, "?"),
		Keywords:    keywords,
	}
}
