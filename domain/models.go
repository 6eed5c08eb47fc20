package domain

import (
	"strings"
	"time"
)

// Source is one configured feed endpoint. Filtered sources pass through the
// keyword relevance filter; unfiltered sources are assumed pre-scoped.
type Source struct {
	Label    string
	URL      string
	Filtered bool
}

// NewsItem is the unit of work and the persisted record. An item is valid
// only when both Title and Link are non-empty.
type NewsItem struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Summary     string
	Source      string
}

func (n NewsItem) Valid() bool {
	return n.Title != "" && n.Link != ""
}

// StoredItem is a NewsItem row with its surrogate key and bookkeeping.
type StoredItem struct {
	ID        int64
	CreatedAt time.Time
	NewsItem
}

// IngestReport is the structured result of one pipeline run.
// Fetched counts items surviving the relevance filter across all sources,
// Processed counts items after top-N truncation, Inserted counts rows that
// were actually new in the store.
type IngestReport struct {
	Fetched   int `json:"fetched"`
	Processed int `json:"processed"`
	Inserted  int `json:"inserted"`
}

// CleanLink scrubs wrapper tokens that incomplete CDATA extraction can leave
// inside a link value. Feeds in the wild produce these; downstream code must
// never see them.
func CleanLink(link string) string {
	link = strings.ReplaceAll(link, "<![CDATA[", "")
	link = strings.ReplaceAll(link, "]]>", "")
	link = strings.ReplaceAll(link, "]]", "")
	return strings.TrimSpace(link)
}
