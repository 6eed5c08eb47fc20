package feed

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"newsdesk/domain"
)

// MaxSummaryLen is the rune length a summary is truncated to before the
// ellipsis marker is appended.
const MaxSummaryLen = 150

const ellipsis = "..."

var reItem = regexp.MustCompile(`(?s)<item(?:\s[^>]*)?>(.*?)</item>`)

// fieldPattern extracts one named tag from an item block, preferring the
// CDATA-wrapped form over the plain form. Real feeds mix both, sometimes
// within a single document.
type fieldPattern struct {
	wrapped *regexp.Regexp
	plain   *regexp.Regexp
}

func newFieldPattern(tag string) fieldPattern {
	return fieldPattern{
		wrapped: regexp.MustCompile(`(?s)<` + tag + `[^>]*>\s*<!\[CDATA\[(.*?)\]\]>\s*</` + tag + `>`),
		plain:   regexp.MustCompile(`(?s)<` + tag + `[^>]*>(.*?)</` + tag + `>`),
	}
}

// extract returns the field value and whether the wrapped form matched.
func (p fieldPattern) extract(block string) (string, bool) {
	if m := p.wrapped.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := p.plain.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1]), false
	}
	return "", false
}

var (
	titleField   = newFieldPattern("title")
	linkField    = newFieldPattern("link")
	dateField    = newFieldPattern("pubDate")
	summaryField = newFieldPattern("description")

	reTag = regexp.MustCompile(`<[^>]*>`)
)

// Parse splits a raw feed document into item blocks and extracts a NewsItem
// from each. Items missing a title or link after extraction are dropped
// silently; a missing or unparseable publish date falls back to now.
func Parse(body, source string) []domain.NewsItem {
	blocks := reItem.FindAllStringSubmatch(body, -1)
	items := make([]domain.NewsItem, 0, len(blocks))
	now := time.Now().UTC()
	for _, b := range blocks {
		if item, ok := parseItem(b[1], source, now); ok {
			items = append(items, item)
		}
	}
	return items
}

func parseItem(block, source string, now time.Time) (domain.NewsItem, bool) {
	title, wrapped := titleField.extract(block)
	if !wrapped {
		// The wrapped form carries literal text; the plain form is
		// entity-escaped by the publisher.
		title = strings.TrimSpace(decodeEntities(title))
	}

	link, _ := linkField.extract(block)
	link = domain.CleanLink(link)

	item := domain.NewsItem{
		Title:       title,
		Link:        link,
		PublishedAt: parseDate(block, now),
		Summary:     extractSummary(block),
		Source:      source,
	}
	if !item.Valid() {
		return domain.NewsItem{}, false
	}
	return item, true
}

// parseDate normalizes to UTC: feeds publish dates in arbitrary offsets and
// the stores order rows by the persisted value, so mixed offsets would
// misorder the retention prune.
func parseDate(block string, now time.Time) time.Time {
	raw, _ := dateField.extract(block)
	if raw == "" {
		return now
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return now
	}
	return t.UTC()
}

func extractSummary(block string) string {
	raw, _ := summaryField.extract(block)
	if raw == "" {
		return ""
	}
	text := reTag.ReplaceAllString(raw, "")
	text = strings.TrimSpace(decodeEntities(text))
	return truncate(text, MaxSummaryLen)
}

func decodeEntities(s string) string {
	s = html.UnescapeString(s)
	return strings.ReplaceAll(s, " ", " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}
