package chat

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	FAQThreshold = 0.6

	minFAQChars = 10
	minFAQWords = 2

	weightKeywords = 0.4
	weightPhrase   = 0.2
	weightIntent   = 0.15
	weightSemantic = 0.25
)

// FAQSource loads the stored FAQs visible to a barangay.
type FAQSource interface {
	ListFAQs(ctx context.Context, barangayID string) ([]FAQ, error)
}

// FAQStage matches the query against stored FAQs.
type FAQStage struct {
	source FAQSource
}

func NewFAQStage(source FAQSource) *FAQStage { return &FAQStage{source: source} }

func (s *FAQStage) Name() string { return "faq" }

// tooShortForFAQ is true for queries with too little to match on. Length is
// counted in characters, not bytes.
func tooShortForFAQ(normalized string) bool {
	return utf8.RuneCountInString(normalized) < minFAQChars || len(SignificantWords(normalized)) < minFAQWords
}

func (s *FAQStage) Handle(ctx context.Context, q Query) (*Reply, error) {
	if tooShortForFAQ(q.Normalized) {
		return nil, nil
	}
	faqs, err := s.source.ListFAQs(ctx, q.BarangayID)
	if err != nil {
		return nil, err
	}

	best, score := BestFAQ(q.Normalized, faqs)
	if best == nil || score < FAQThreshold {
		return nil, nil
	}
	category := best.Category
	if category == "" {
		category = "faq"
	}
	return &Reply{Message: best.Answer, Source: SourceFAQ, Category: category}, nil
}

// BestFAQ returns the highest scoring FAQ and its score.
func BestFAQ(normalized string, faqs []FAQ) (*FAQ, float64) {
	var best *FAQ
	bestScore := 0.0
	for i := range faqs {
		if sc := ScoreFAQ(normalized, faqs[i]); sc > bestScore {
			best, bestScore = &faqs[i], sc
		}
	}
	return best, bestScore
}

// ScoreFAQ combines keyword hits weighted by keyword length, the best
// multi-word keyword overlap, intent agreement and synonym similarity into
// a score in [0, 1].
func ScoreFAQ(normalized string, f FAQ) float64 {
	queryWords := SignificantWords(normalized)
	querySet := map[string]bool{}
	for _, w := range strings.Fields(normalized) {
		querySet[w] = true
	}

	var hit, total float64
	phrase := 0.0
	for _, raw := range f.Keywords {
		k := Normalize(raw)
		if k == "" {
			continue
		}
		total += float64(len(k))
		if containsPhrase(normalized, k) {
			hit += float64(len(k))
		}
		words := strings.Fields(k)
		if len(words) > 1 {
			n := 0
			for _, w := range words {
				if querySet[w] {
					n++
				}
			}
			if r := float64(n) / float64(len(words)); r > phrase {
				phrase = r
			}
		}
	}
	keywords := 0.0
	if total > 0 {
		keywords = hit / total
	}
	// Single-word keyword lists have no phrase signal; let keyword hits stand in.
	if phrase == 0 && hit > 0 {
		phrase = keywords
	}

	question := Normalize(f.Question)
	intent := 0.0
	if qi := ExtractIntent(normalized); qi != "" && qi == ExtractIntent(question) {
		intent = 1
	}

	semantic := Similarity(queryWords, SignificantWords(question))

	return weightKeywords*keywords + weightPhrase*phrase + weightIntent*intent + weightSemantic*semantic
}
