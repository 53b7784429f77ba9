package registry

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"unicode"
)

// SearchRecord is the lightweight, searchable view of one merged item.
type SearchRecord struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Type         string `json:"type"`
	Author       string `json:"author,omitempty"`
	URL          string `json:"url"`
	RegistryName string `json:"registryName"`
}

// SearchIndex is a token index over search records. Tokens are lowercased
// words split on non-alphanumeric runes; nothing is stemmed or dropped.
type SearchIndex struct {
	Records []SearchRecord   `json:"records"`
	Tokens  map[string][]int `json:"tokens"`
}

// SearchHit is one search result.
type SearchHit struct {
	SearchRecord
	Score int `json:"score"`
}

// Match scores, per query token.
const (
	scoreSubstring = 1
	scorePrefix    = 2
	scoreExact     = 3
)

// BuildSearchIndex derives one record per item. The items are only read.
func BuildSearchIndex(items []*Item) *SearchIndex {
	idx := &SearchIndex{
		Records: make([]SearchRecord, 0, len(items)),
		Tokens:  make(map[string][]int),
	}
	for _, item := range items {
		rec := SearchRecord{
			Name:         item.Name,
			Description:  item.Description,
			Type:         item.Type.Short(),
			Author:       item.Author,
			URL:          itemURL(item),
			RegistryName: item.RegistryName(),
		}
		idx.add(rec)
	}
	return idx
}

func (idx *SearchIndex) add(rec SearchRecord) {
	i := len(idx.Records)
	idx.Records = append(idx.Records, rec)

	seen := make(map[string]bool)
	fields := []string{rec.Name, rec.Description, rec.Type, rec.Author, rec.RegistryName}
	for _, f := range fields {
		for _, tok := range tokenize(f) {
			if !seen[tok] {
				seen[tok] = true
				idx.Tokens[tok] = append(idx.Tokens[tok], i)
			}
		}
	}
	// The full name is a token too, so "dropdown-menu" matches exactly.
	if name := strings.ToLower(rec.Name); name != "" && !seen[name] {
		idx.Tokens[name] = append(idx.Tokens[name], i)
	}
}

// Search returns records matching every query token, best first. Equal
// scores keep index order. limit <= 0 returns all hits.
func (idx *SearchIndex) Search(query string, limit int) []SearchHit {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	var scores map[int]int
	for _, term := range terms {
		termScores := make(map[int]int)
		for tok, recs := range idx.Tokens {
			s := matchScore(tok, term)
			if s == 0 {
				continue
			}
			for _, r := range recs {
				if s > termScores[r] {
					termScores[r] = s
				}
			}
		}
		if scores == nil {
			scores = termScores
			continue
		}
		for r, s := range scores {
			ts, ok := termScores[r]
			if !ok {
				delete(scores, r)
				continue
			}
			scores[r] = s + ts
		}
	}

	ranked := make([]int, 0, len(scores))
	for r := range scores {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a < b
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hits := make([]SearchHit, len(ranked))
	for i, r := range ranked {
		hits[i] = SearchHit{SearchRecord: idx.Records[r], Score: scores[r]}
	}
	return hits
}

func matchScore(tok, term string) int {
	switch {
	case tok == term:
		return scoreExact
	case strings.HasPrefix(tok, term):
		return scorePrefix
	case strings.Contains(tok, term):
		return scoreSubstring
	}
	return 0
}

// tokenize lowercases s and splits it on non-alphanumeric runes.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// itemURL is where a registry serves the item document.
func itemURL(item *Item) string {
	home := strings.TrimSuffix(item.RegistryHomepage(), "/")
	if home == "" {
		return ""
	}
	return home + "/r/" + item.Name + ".json"
}

// LoadSearchIndex reads a serialized search index.
func LoadSearchIndex(path string) (*SearchIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx SearchIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	if idx.Tokens == nil {
		idx.Tokens = make(map[string][]int)
	}
	return &idx, nil
}
