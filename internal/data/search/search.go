// Package search ranks indexed filenames against a short query typed into
// an autocomplete box.
package search

import (
	"complete/internal/core/ports"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultLimit caps Rank results when the caller passes a non-positive limit.
const DefaultLimit = 20

// Range is an inclusive [begin, end] byte span of a path.
type Range [2]int

type Match struct {
	Path   string  `json:"path"`
	Ranges []Range `json:"path_highlight_ranges"`
	Score  float64 `json:"-"`
}

// Score matches query against the basename of path. Each query character
// must appear in order, case-insensitively, at the earliest position after
// the previous one, and the first must be the basename's first character.
// Runs of adjacent matched characters become one range. Ranges are offsets
// into the full path. A non-match scores 0.
func Score(path, query string) (float64, []Range) {
	if path == "" {
		return 0, nil
	}
	base := filepath.Base(path)
	offset := len(path) - len(base)

	ranges := make([]Range, 0, len(query))
	pos := 0
	for i := 0; i < len(query); i++ {
		idx := -1
		if i == 0 {
			if len(base) > 0 && foldEq(base[0], query[0]) {
				idx = 0
			}
		} else {
			for j := pos; j < len(base); j++ {
				if foldEq(base[j], query[i]) {
					idx = j
					break
				}
			}
		}
		if idx < 0 {
			return 0, nil
		}
		at := idx + offset
		if n := len(ranges); n > 0 && ranges[n-1][1]+1 == at {
			ranges[n-1][1] = at
		} else {
			ranges = append(ranges, Range{at, at})
		}
		pos = idx + 1
	}

	score := 5.0
	for _, r := range ranges {
		if isBeginning(r[0], path) {
			score += 10
		}
		score += float64(r[1]-r[0]) * 11
	}
	// Shorter paths win ties, which pushes _test variants down.
	score += 1.0 / float64(len(path))
	return score, ranges
}

func foldEq(a, b byte) bool {
	return lower(a) == lower(b)
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

func isBeginning(i int, s string) bool {
	if i > 0 && (s[i-1] == '_' || s[i-1] == '/') {
		return true
	}
	return s[i] >= 'A' && s[i] <= 'Z'
}

// Rank scores every path and returns the best limit matches, highest
// score first and ties broken by path in descending order.
func Rank(paths []string, query string, limit int) []Match {
	if limit <= 0 {
		limit = DefaultLimit
	}
	matches := make([]Match, 0, len(paths))
	for _, p := range paths {
		score, ranges := Score(p, query)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{Path: p, Ranges: ranges, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Path > matches[j].Path
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Index holds the filename list searched by the server and the picker.
type Index struct {
	mu    sync.RWMutex
	paths []string
}

func NewIndex(paths []string) *Index {
	return &Index{paths: append([]string(nil), paths...)}
}

// Load replaces the indexed paths with the files known to reader.
func (x *Index) Load(ctx context.Context, reader ports.SymbolReader) error {
	files, err := reader.Files(ctx)
	if err != nil {
		return fmt.Errorf("load filenames: %w", err)
	}
	x.mu.Lock()
	x.paths = files
	x.mu.Unlock()
	return nil
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.paths)
}

func (x *Index) Search(query string, limit int) []Match {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return Rank(x.paths, strings.TrimSpace(query), limit)
}
