package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"newsdesk/adapter/sqlite"
	"newsdesk/domain"
)

type fakeFetcher struct {
	items map[string][]domain.NewsItem
	errs  map[string]error
}

func (f fakeFetcher) Fetch(_ context.Context, src domain.Source) ([]domain.NewsItem, error) {
	if err := f.errs[src.Label]; err != nil {
		return nil, err
	}
	return f.items[src.Label], nil
}

func newTestRepo(t *testing.T) domain.NewsRepository {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlite.New(db)
	require.NoError(t, repo.Ensure(context.Background()))
	return repo
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newsItem(title, link string, hour int, source string) domain.NewsItem {
	return domain.NewsItem{
		Title:       title,
		Link:        link,
		PublishedAt: time.Date(2025, 6, 3, hour, 0, 0, 0, time.UTC),
		Source:      source,
	}
}

var testSources = []domain.Source{
	{Label: "habr", URL: "https://habr.invalid/rss", Filtered: true},
	{Label: "vc", URL: "https://vc.invalid/rss", Filtered: false},
}

func TestRunHappyPath(t *testing.T) {
	repo := newTestRepo(t)
	fetcher := fakeFetcher{items: map[string][]domain.NewsItem{
		"habr": {
			newsItem("OpenAI news", "https://h/1", 10, "habr"),
			newsItem("Кулинария", "https://h/2", 11, "habr"),
			newsItem("Нейросети сегодня", "https://h/3", 12, "habr"),
		},
		"vc": {
			newsItem("unscoped one", "https://v/1", 9, "vc"),
			newsItem("unscoped two", "https://v/2", 13, "vc"),
			newsItem("unscoped three", "https://v/3", 8, "vc"),
		},
	}}
	svc := NewIngestService(repo, fetcher, discardLogger(), testSources, testKeywords, 15, 45)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.IngestReport{Fetched: 5, Processed: 5, Inserted: 5}, report)

	stored, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stored, 5)
	assert.Equal(t, "unscoped two", stored[0].Title)

	report, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.IngestReport{Fetched: 5, Processed: 5, Inserted: 0}, report)
}

func TestRunSurvivesFailedSource(t *testing.T) {
	repo := newTestRepo(t)
	fetcher := fakeFetcher{
		items: map[string][]domain.NewsItem{
			"vc": {newsItem("still here", "https://v/1", 9, "vc")},
		},
		errs: map[string]error{"habr": errors.New("connection refused")},
	}
	svc := NewIngestService(repo, fetcher, discardLogger(), testSources, testKeywords, 15, 45)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.IngestReport{Fetched: 1, Processed: 1, Inserted: 1}, report)
}

func TestRunTruncatesToTopN(t *testing.T) {
	repo := newTestRepo(t)
	var items []domain.NewsItem
	for i := 0; i < 20; i++ {
		items = append(items, newsItem("t", "https://v/"+string(rune('a'+i)), i, "vc"))
	}
	fetcher := fakeFetcher{items: map[string][]domain.NewsItem{"vc": items}}
	svc := NewIngestService(repo, fetcher, discardLogger(), testSources, testKeywords, 15, 45)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, report.Fetched)
	assert.Equal(t, 15, report.Processed)
	assert.Equal(t, 15, report.Inserted)
}

func TestRunEnforcesRetention(t *testing.T) {
	repo := newTestRepo(t)
	fetcher := fakeFetcher{items: map[string][]domain.NewsItem{
		"vc": {
			newsItem("a", "https://v/1", 8, "vc"),
			newsItem("b", "https://v/2", 9, "vc"),
			newsItem("c", "https://v/3", 10, "vc"),
			newsItem("d", "https://v/4", 11, "vc"),
		},
	}}
	svc := NewIngestService(repo, fetcher, discardLogger(), testSources, testKeywords, 15, 3)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stored, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "d", stored[0].Title)
	assert.Equal(t, "b", stored[2].Title)
}

type failingRepo struct{ domain.NewsRepository }

func (failingRepo) InsertIgnore(context.Context, domain.NewsItem) (bool, error) {
	return false, errors.New("disk full")
}

func TestRunPropagatesStorageError(t *testing.T) {
	fetcher := fakeFetcher{items: map[string][]domain.NewsItem{
		"vc": {newsItem("a", "https://v/1", 8, "vc")},
	}}
	svc := NewIngestService(failingRepo{newTestRepo(t)}, fetcher, discardLogger(), testSources, testKeywords, 15, 45)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
