package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"newsdesk/domain"
)

// IngestService runs the fetch -> parse -> filter -> merge -> upsert -> prune
// pipeline. Sources are fetched concurrently; a failed source is logged and
// contributes zero items. Storage failures abort the run.
//
// Concurrent runs are safe without locking: the insert is an idempotent
// unique-constraint no-op and the prune recomputes from current table state.
type IngestService struct {
	repo    domain.NewsRepository
	fetcher domain.FeedFetcher
	log     *slog.Logger

	sources   []domain.Source
	keywords  []string
	topN      int
	retention int
}

func NewIngestService(repo domain.NewsRepository, fetcher domain.FeedFetcher, log *slog.Logger, sources []domain.Source, keywords []string, topN, retention int) *IngestService {
	return &IngestService{
		repo:      repo,
		fetcher:   fetcher,
		log:       log,
		sources:   sources,
		keywords:  keywords,
		topN:      topN,
		retention: retention,
	}
}

func (s *IngestService) Run(ctx context.Context) (domain.IngestReport, error) {
	log := s.log.With("run", uuid.NewString())

	// Indexed by source so the merged order is deterministic regardless of
	// which fetch finishes first.
	perSource := make([][]domain.NewsItem, len(s.sources))
	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src domain.Source) {
			defer wg.Done()
			items, err := s.fetcher.Fetch(ctx, src)
			if err != nil {
				log.Warn("source fetch failed", "source", src.Label, "err", err)
				return
			}
			if src.Filtered {
				items = Filter(items, s.keywords)
			}
			perSource[i] = items
		}(i, src)
	}
	wg.Wait()

	var all []domain.NewsItem
	for _, items := range perSource {
		all = append(all, items...)
	}
	fetched := len(all)

	top := Merge(all, s.topN)

	inserted := 0
	for _, item := range top {
		ok, err := s.repo.InsertIgnore(ctx, item)
		if err != nil {
			return domain.IngestReport{}, fmt.Errorf("insert %q: %w", item.Title, err)
		}
		if ok {
			inserted++
		}
	}

	// Runs even when nothing was inserted: other writers may have grown the
	// table since the last cycle.
	if err := s.repo.Prune(ctx, s.retention); err != nil {
		return domain.IngestReport{}, fmt.Errorf("prune: %w", err)
	}

	report := domain.IngestReport{Fetched: fetched, Processed: len(top), Inserted: inserted}
	log.Info("ingest complete", "fetched", report.Fetched, "processed", report.Processed, "inserted", report.Inserted)
	return report, nil
}
