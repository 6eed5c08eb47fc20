package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"newsdesk/adapter/feed"
	"newsdesk/adapter/postgres"
	"newsdesk/adapter/sqlite"
	"newsdesk/app"
	"newsdesk/domain"
	"newsdesk/internal/config"
	"newsdesk/internal/control"
)

const defaultConfigPath = "./newsdesk.yaml"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "--help", "-h", "help":
		printHelp()
		return
	case "serve":
		err = cmdServe(args)
	case "update":
		err = cmdUpdate(args)
	case "articles":
		err = cmdArticles(args)
	default:
		fmt.Printf("unknown command: %s\n\n", cmd)
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`Usage:
  newsdesk COMMAND [OPTIONS]

Commands:
   serve           run the scheduler and the HTTP update trigger
   update          run one ingestion cycle and print the report
   articles        show stored news items, newest first
   help            show this help

Options:
   --config PATH   config file (default ./newsdesk.yaml)
`)
}

func cmdServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := fset.String("config", defaultConfigPath, "config file")
	if err := fset.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	listener, err := control.TryListen(cfg.ListenAddr)
	if err != nil {
		if errors.Is(err, control.ErrAlreadyRunning) {
			fmt.Println("newsdesk is already running")
		}
		return err
	}
	defer listener.Close()

	database, repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := repo.Ensure(context.Background()); err != nil {
		return fmt.Errorf("store ensure failed: %w", err)
	}

	svc := newService(cfg, repo, log)
	runTimeout := cfg.FetchTimeout() + 30*time.Second
	sched, err := app.NewScheduler(svc, log, cfg.Schedule, runTimeout)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	ctrl := control.NewServer(svc, repo, control.SecretKey{Secret: cfg.TriggerSecret}, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		_ = http.Serve(listener, ctrl)
	}()
	sched.Start()

	fmt.Printf("newsdesk serving on %s (schedule %q, store %s)\n", cfg.ListenAddr, cfg.Schedule, cfg.Store.Driver)

	<-ctx.Done()
	sched.Stop()
	fmt.Println("Graceful shutdown: scheduler stopped")
	return nil
}

func cmdUpdate(args []string) error {
	fset := flag.NewFlagSet("update", flag.ContinueOnError)
	cfgPath := fset.String("config", defaultConfigPath, "config file")
	if err := fset.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	database, repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := repo.Ensure(context.Background()); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout()+30*time.Second)
	defer cancel()
	report, err := newService(cfg, repo, log).Run(ctx)
	if err != nil {
		return err
	}
	out, err := successPayload(report)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func successPayload(report domain.IngestReport) ([]byte, error) {
	return json.Marshal(struct {
		Status string `json:"status"`
		domain.IngestReport
	}{Status: "success", IngestReport: report})
}

func cmdArticles(args []string) error {
	fset := flag.NewFlagSet("articles", flag.ContinueOnError)
	cfgPath := fset.String("config", defaultConfigPath, "config file")
	num := fset.Int("num", 0, "limit number of items (0 = all)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	database, repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := repo.Ensure(context.Background()); err != nil {
		return err
	}
	items, err := repo.ListRecent(context.Background(), *num)
	if err != nil {
		return err
	}
	for i, it := range items {
		fmt.Printf("%d. [%s] (%s) %s\n   %s\n\n", i+1, it.PublishedAt.Format("2006-01-02"), it.Source, it.Title, it.Link)
	}
	return nil
}

func newService(cfg config.Config, repo domain.NewsRepository, log *slog.Logger) *app.IngestService {
	sources := make([]domain.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, domain.Source{Label: s.Label, URL: s.URL, Filtered: s.Filtered})
	}
	fetcher := feed.NewHTTPFetcher(cfg.FetchTimeout())
	return app.NewIngestService(repo, fetcher, log, sources, cfg.Keywords, cfg.TopN, cfg.Retention)
}

func openStore(cfg config.Config) (*sql.DB, domain.NewsRepository, error) {
	switch cfg.Store.Driver {
	case "postgres":
		pgURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.Store.PGUser, cfg.Store.PGPassword, cfg.Store.PGHost, cfg.Store.PGPort, cfg.Store.PGDatabase,
		)
		database, err := sql.Open("postgres", pgURL)
		if err != nil {
			return nil, nil, err
		}
		database.SetMaxOpenConns(10)
		database.SetMaxIdleConns(10)
		database.SetConnMaxLifetime(30 * time.Minute)
		if err := database.Ping(); err != nil {
			return nil, nil, err
		}
		return database, postgres.New(database), nil
	case "sqlite":
		database, err := sql.Open("sqlite", cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		database.SetMaxOpenConns(1)
		return database, sqlite.New(database), nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
