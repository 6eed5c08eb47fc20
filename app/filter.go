package app

import (
	"strings"

	"newsdesk/domain"
)

// Relevant reports whether the item's title or summary contains any of the
// keywords. Matching is case-insensitive substring containment.
func Relevant(item domain.NewsItem, keywords []string) bool {
	title := strings.ToLower(item.Title)
	summary := strings.ToLower(item.Summary)
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(title, kw) || strings.Contains(summary, kw) {
			return true
		}
	}
	return false
}

// Filter keeps only relevant items, preserving input order. No dedup happens
// at this stage.
func Filter(items []domain.NewsItem, keywords []string) []domain.NewsItem {
	out := make([]domain.NewsItem, 0, len(items))
	for _, it := range items {
		if Relevant(it, keywords) {
			out = append(out, it)
		}
	}
	return out
}
