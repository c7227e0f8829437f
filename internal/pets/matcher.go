package pets

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MinMatchScore = 40
	MaxMatches    = 5
)

type Match struct {
	Key    string
	Record Record
	Score  int
}

// Score rates how well query matches name on a 0..100 scale. The bands are
// tuned values kept for compatibility with existing lookups.
func Score(query, name string) int {
	a := strings.ToLower(strings.TrimSpace(query))
	b := strings.ToLower(strings.TrimSpace(name))

	if a == b {
		return 100
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return 95
	}

	wordsA := wordSet(a)
	wordsB := wordSet(b)
	common := 0
	for word := range wordsA {
		if _, ok := wordsB[word]; ok {
			common++
		}
	}
	if common > 0 {
		ratio := float64(common) / float64(max(len(wordsA), len(wordsB)))
		if ratio >= 0.4 {
			return int(ratio * 85)
		}
	}

	if ratio := SequenceRatio(a, b); ratio >= 0.6 {
		return int(ratio * 80)
	}

	for word := range wordsA {
		if utf8.RuneCountInString(word) > 2 && strings.Contains(b, word) {
			return 60
		}
	}
	return 0
}

// BestMatches scores every record by name and returns the top results above
// MinMatchScore. Equal scores keep key order.
func BestMatches(entries []Entry, query string, limit int) []Match {
	var matches []Match
	for _, entry := range entries {
		if score := Score(query, entry.Record.Name); score > MinMatchScore {
			matches = append(matches, Match{Key: entry.Key, Record: entry.Record, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

var queryPunct = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s]`)

// Lookup resolves a user query: exact key, then exact name, then the best
// fuzzy match. The returned matches hold the fuzzy candidates when the
// exact steps failed.
func (s *Store) Lookup(query string) (Match, []Match, bool) {
	clean := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(queryPunct.ReplaceAllString(query, ""))), " ", "_")
	entries := s.Entries()
	for _, entry := range entries {
		if entry.Key == clean || strings.EqualFold(entry.Record.Name, query) {
			return Match{Key: entry.Key, Record: entry.Record, Score: 100}, nil, true
		}
	}

	matches := BestMatches(entries, query, MaxMatches)
	if len(matches) == 0 {
		return Match{}, nil, false
	}
	return matches[0], matches, true
}

// SequenceRatio is the Ratcliff/Obershelp similarity 2*M/T over runes.
func SequenceRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingRunes(a[:i], b[:j]) + matchingRunes(a[i+size:], b[j+size:])
}

// longestMatch finds the longest common block, preferring the earliest in a
// and then in b.
func longestMatch(a, b []rune) (int, int, int) {
	bestI, bestJ, bestSize := 0, 0, 0
	prev := make([]int, len(b)+1)
	for i := range a {
		curr := make([]int, len(b)+1)
		for j := range b {
			if a[i] != b[j] {
				continue
			}
			k := prev[j] + 1
			curr[j+1] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		prev = curr
	}
	return bestI, bestJ, bestSize
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		set[word] = struct{}{}
	}
	return set
}
