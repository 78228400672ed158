package chat

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// onlineCoverage is the share of the query the matched keywords must cover
// before the offline table answers in online mode; later stages handle the rest.
const onlineCoverage = 0.3

//go:embed offline_faq.yaml
var defaultOfflineYAML []byte

type OfflineEntry struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

type offlineFile struct {
	Entries []OfflineEntry `yaml:"entries"`
}

// OfflineStage answers from a fixed keyword table with no network or DB.
type OfflineStage struct {
	entries []OfflineEntry
}

// ParseOffline reads an offline table, normalizing its keywords.
func ParseOffline(data []byte) (*OfflineStage, error) {
	var f offlineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse offline faq: %w", err)
	}
	for i := range f.Entries {
		for j, k := range f.Entries[i].Keywords {
			f.Entries[i].Keywords[j] = Normalize(k)
		}
	}
	return &OfflineStage{entries: f.Entries}, nil
}

// LoadOffline uses path when set, otherwise the embedded table.
func LoadOffline(path string) (*OfflineStage, error) {
	if path == "" {
		return ParseOffline(defaultOfflineYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseOffline(data)
}

func (s *OfflineStage) Name() string { return "offline" }

// Handle picks the entry whose matched keywords cover the most characters.
func (s *OfflineStage) Handle(_ context.Context, q Query) (*Reply, error) {
	best, bestScore := -1, 0
	for i, e := range s.entries {
		score := 0
		for _, k := range e.Keywords {
			if containsPhrase(q.Normalized, k) {
				score += len(k)
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return nil, nil
	}
	if q.Online && float64(bestScore) < onlineCoverage*float64(len(q.Normalized)) {
		return nil, nil
	}
	e := s.entries[best]
	return &Reply{Message: e.Answer, Source: SourceOffline, Category: e.Category}, nil
}
