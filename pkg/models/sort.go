package models

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortNodes orders nodes folders first, then by title using a
// case-insensitive Unicode collation. Ties fall back to path so the order is
// stable across calls.
func SortNodes(nodes []*Node) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		if cmp := c.CompareString(a.Title, b.Title); cmp != 0 {
			return cmp < 0
		}
		return a.Path < b.Path
	})
}
