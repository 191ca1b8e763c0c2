package devserver

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Article is one page with unsourced snippets.
type Article struct {
	PageID   int      `json:"page_id"`
	Title    string   `json:"title"`
	Snippets []string `json:"snippets"`
}

// Category groups articles.
type Category struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	NPages int    `json:"npages"`
}

// Corpus is the fixture data the dev server answers from.
type Corpus struct {
	Articles   []Article  `json:"articles"`
	Categories []Category `json:"categories"`
}

// LoadCorpus reads a corpus from a JSON file.
func LoadCorpus(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("read corpus: %w", err)
	}
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return Corpus{}, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	return c, nil
}

// index finds titles by case-insensitive prefix of the title or of any word
// in it, then falls back to substring matching.
type index struct {
	trie   *patricia.Trie
	titles []string
}

func newIndex(titles []string) *index {
	idx := &index{trie: patricia.NewTrie(), titles: make([]string, len(titles))}
	for i, title := range titles {
		lower := strings.ToLower(title)
		idx.titles[i] = lower
		for _, key := range wordSuffixes(lower) {
			idx.add(key, i)
		}
	}
	return idx
}

func (idx *index) add(key string, pos int) {
	p := patricia.Prefix(key)
	if item := idx.trie.Get(p); item != nil {
		positions := item.([]int)
		if positions[len(positions)-1] != pos {
			idx.trie.Set(p, append(positions, pos))
		}
		return
	}
	idx.trie.Insert(p, []int{pos})
}

// wordSuffixes returns the title itself plus the remainder of the title from
// every word start, so "cats in art" is reachable from "in" and "art".
func wordSuffixes(lower string) []string {
	keys := []string{lower}
	prevSpace := false
	for i, r := range lower {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			prevSpace = true
			continue
		}
		if prevSpace && i > 0 {
			keys = append(keys, lower[i:])
		}
		prevSpace = false
	}
	return keys
}

// lookup returns corpus positions matching needle in corpus order, at most
// limit of them.
func (idx *index) lookup(needle string, limit int) []int {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return firstN(len(idx.titles), limit)
	}
	seen := make(map[int]struct{})
	_ = idx.trie.VisitSubtree(patricia.Prefix(needle), func(_ patricia.Prefix, item patricia.Item) error {
		for _, pos := range item.([]int) {
			seen[pos] = struct{}{}
		}
		return nil
	})
	if len(seen) == 0 {
		for i, title := range idx.titles {
			if strings.Contains(title, needle) {
				seen[i] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(seen))
	for pos := range seen {
		out = append(out, pos)
	}
	sort.Ints(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func firstN(n, limit int) []int {
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// DefaultCorpus is a small built-in data set.
func DefaultCorpus() Corpus {
	return Corpus{
		Articles: []Article{
			{PageID: 1001, Title: "Cat", Snippets: []string{"a1f3", "b2e4", "c3d5"}},
			{PageID: 1002, Title: "Catalan cuisine", Snippets: []string{"d4c6"}},
			{PageID: 1003, Title: "Catamaran", Snippets: []string{"e5b7", "f6a8"}},
			{PageID: 1004, Title: "Category theory", Snippets: []string{"07f9"}},
			{PageID: 1005, Title: "Siamese cat", Snippets: []string{"18ea", "29db"}},
			{PageID: 1006, Title: "Tabby cat", Snippets: []string{"3acc"}},
			{PageID: 1007, Title: "Dog", Snippets: []string{"4bbd", "5cae", "6d9f", "7e80"}},
			{PageID: 1008, Title: "Dogfish", Snippets: []string{"8f71"}},
			{PageID: 1009, Title: "Ada Lovelace", Snippets: []string{"9062", "a153"}},
			{PageID: 1010, Title: "Analytical Engine", Snippets: []string{"b244"}},
			{PageID: 1011, Title: "Zürich", Snippets: []string{"c335", "d426"}},
			{PageID: 1012, Title: "São Paulo", Snippets: []string{"e517"}},
		},
		Categories: []Category{
			{ID: "1", Title: "Felines", NPages: 12},
			{ID: "2", Title: "Cats in art", NPages: 4},
			{ID: "3", Title: "Catalan culture", NPages: 7},
			{ID: "4", Title: "Computing pioneers", NPages: 21},
			{ID: "5", Title: "Cities in Switzerland", NPages: 9},
			{ID: "6", Title: "Dog breeds", NPages: 33},
			{ID: "7", Title: "Boats", NPages: 15},
		},
	}
}
