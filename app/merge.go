package app

import (
	"sort"

	"newsdesk/domain"
)

// Merge combines items from all sources into one list sorted by publish time
// descending and truncated to the first topN. The sort is stable so items
// with equal timestamps keep their input order. Every link gets the wrapper
// scrub pass before truncation.
func Merge(items []domain.NewsItem, topN int) []domain.NewsItem {
	merged := make([]domain.NewsItem, len(items))
	copy(merged, items)
	for i := range merged {
		merged[i].Link = domain.CleanLink(merged[i].Link)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if topN > 0 && len(merged) > topN {
		merged = merged[:topN]
	}
	return merged
}
