// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/newsdex/ai"
	"github.com/poiesic/newsdex/ai/openai"
	"github.com/poiesic/newsdex/eviction"
	"github.com/poiesic/newsdex/fetch"
	"github.com/poiesic/newsdex/ingestion"
	"github.com/poiesic/newsdex/reembed"
	"github.com/poiesic/newsdex/search"
	"github.com/poiesic/newsdex/sources"
	"github.com/poiesic/newsdex/storage/badger"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "newsdex",
		Usage: "Embedding store and retrieval engine for news articles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Fetch, embed and store articles from a links file",
				ArgsUsage: "LINKS_FILE",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						Value:   "http://localhost:11434/v1",
						EnvVars: []string{"NEWSDEX_EMBEDDING_HOST"},
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						Value:   "embeddinggemma",
						EnvVars: []string{"NEWSDEX_EMBEDDING_MODEL"},
					},
					&cli.StringFlag{
						Name:    "classifier-host",
						Usage:   "Classifier service host URL (defaults to embedding-host)",
						EnvVars: []string{"NEWSDEX_CLASSIFIER_HOST"},
					},
					&cli.StringFlag{
						Name:    "classifier-model",
						Usage:   "Classifier model name for bias scoring",
						Value:   "qwen2.5:3b",
						EnvVars: []string{"NEWSDEX_CLASSIFIER_MODEL"},
					},
					&cli.BoolFlag{
						Name:  "classify",
						Usage: "Score political bias of each article during ingestion",
					},
					&cli.StringFlag{
						Name:  "sources",
						Usage: "YAML feed-name table (defaults to the built-in table)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of ingestion workers",
						Value: 4,
					},
					&cli.Float64Flag{
						Name:  "rate-limit",
						Usage: "Maximum article fetches per second",
						Value: 2,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find stored articles similar to a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						Value:   "http://localhost:11434/v1",
						EnvVars: []string{"NEWSDEX_EMBEDDING_HOST"},
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						Value:   "embeddinggemma",
						EnvVars: []string{"NEWSDEX_EMBEDDING_MODEL"},
					},
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultTopN,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Exclusive similarity cutoff",
						Value: float64(search.DefaultThreshold),
					},
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "Source to exclude (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "boost",
						Usage: "Additive source boost as 'source=0.2' (repeatable)",
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Earliest publication date (inclusive)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Latest publication date (inclusive)",
					},
				},
			},
			{
				Name:   "sweep",
				Usage:  "Delete articles older than the retention window",
				Action: sweepCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.DurationFlag{
						Name:  "retention",
						Usage: "Retention window",
						Value: eviction.DefaultRetention,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Re-encode all stored articles with a new embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						Value:   "http://localhost:11434/v1",
						EnvVars: []string{"NEWSDEX_EMBEDDING_HOST"},
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
						EnvVars:  []string{"NEWSDEX_EMBEDDING_MODEL"},
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of articles to encode in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed encoder calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
		EnvVars:  []string{"NEWSDEX_DB"},
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("want exactly one LINKS_FILE argument")
	}
	requests, err := parseLinksFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("reading links file: %w", err)
	}
	if len(requests) == 0 {
		fmt.Fprintln(os.Stderr, "links file holds no requests, nothing to do")
		return nil
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	classifierHost := c.String("classifier-host")
	if classifierHost == "" {
		classifierHost = c.String("embedding-host")
	}
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithClassifierHost(classifierHost),
		ai.WithClassifierModel(c.String("classifier-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	normalizer := sources.NewDefaultNormalizer()
	if path := c.String("sources"); path != "" {
		normalizer, err = sources.LoadNormalizer(path)
		if err != nil {
			return fmt.Errorf("failed to load source table: %w", err)
		}
	}

	bar := progressbar.Default(int64(len(requests)), "ingesting")
	fetcher := &progressFetcher{
		inner: fetch.NewHTTPFetcher(fetch.WithRateLimit(c.Float64("rate-limit"))),
		bar:   bar,
	}

	opts := []ingestion.Option{ingestion.WithWorkers(c.Int("workers"))}
	if c.Bool("classify") {
		classifier, err := openai.NewBiasClassifier(aiConfig)
		if err != nil {
			return fmt.Errorf("failed to create bias classifier: %w", err)
		}
		opts = append(opts, ingestion.WithBiasClassifier(classifier))
	}

	coordinator, err := ingestion.NewCoordinator(repo, fetcher, embedder, normalizer, opts...)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coordinator.Release()

	report, err := coordinator.Ingest(ctx, requests)
	bar.Finish()
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\nStored %d of %d articles in %s\n",
		report.Succeeded, len(requests), report.Duration.Round(time.Millisecond))
	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "  failed (%s): %s: %v\n", failure.Stage, failure.URL, failure.Err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	queryText := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(queryText) == "" {
		return fmt.Errorf("query text is required")
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	vector, err := embedder.EmbedText(ctx, queryText)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	query := search.NewQuery(vector)
	query.TopN = c.Int("top")
	query.Threshold = float32(c.Float64("threshold"))
	query.Blacklist = c.StringSlice("exclude")
	query.Whitelist, err = parseBoosts(c.StringSlice("boost"))
	if err != nil {
		return err
	}
	if from := c.String("from"); from != "" {
		if query.From, err = parseDate(from); err != nil {
			return err
		}
	}
	if to := c.String("to"); to != "" {
		if query.To, err = parseDate(to); err != nil {
			return err
		}
	}

	engine, err := search.NewEngine(repo)
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}

	matches, err := engine.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(matches))
	for i, match := range matches {
		doc := match.Document
		date := "undated"
		if !doc.PublishedAt.IsZero() {
			date = doc.PublishedAt.Format("2006-01-02")
		}
		fmt.Printf("%d: [%0.3f] %s (%s, %s)\n   %s\n", i+1, match.Score, doc.Title, doc.Source, date, doc.URL)
		if doc.BiasScore != nil {
			fmt.Printf("   bias: %0.2f\n", *doc.BiasScore)
		}
	}
	return nil
}

func sweepCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	sweeper, err := eviction.NewSweeper(repo)
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}

	report, err := sweeper.Sweep(ctx, c.Duration("retention"), time.Time{})
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("Deleted %d, retained %d, undated %d, corrupt %d\n",
		report.Deleted, report.Retained, report.Undated, report.Corrupt)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:  c.Int("batch-size"),
		MaxRetries: c.Int("max-retries"),
		RetryDelay: c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	var bar *progressbar.ProgressBar
	reembedder, err := reembed.NewReembedder(repo, embedder, reembedConfig,
		reembed.WithProgress(func(processed, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "reembedding")
			}
			bar.Set(processed)
		}))
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	report, err := reembedder.Run(ctx)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\nRe-encoded %d articles to dimension %d in %s\n",
		report.Processed, report.Dimension, report.Duration.Round(time.Millisecond))
	return nil
}

// progressFetcher advances a progress bar as ingestion workers pull articles.
type progressFetcher struct {
	inner fetch.Fetcher
	bar   *progressbar.ProgressBar
}

func (p *progressFetcher) Fetch(ctx context.Context, url string) (*fetch.Article, error) {
	article, err := p.inner.Fetch(ctx, url)
	p.bar.Add(1)
	return article, err
}

func setup(c *cli.Context) error {
	// A missing .env file is fine; flags and real env still apply.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
