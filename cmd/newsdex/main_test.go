package main

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestParseLinks(t *testing.T) {
	t.Run("full lines", func(t *testing.T) {
		input := strings.Join([]string{
			"# morning batch",
			"bbc-world, https://n.example/one, 2026-01-15",
			"",
			"reuters-top, https://n.example/two, 2026-01-15T08:30:00Z",
			"reuters-top, https://n.example/three",
		}, "\n")

		requests, err := parseLinks(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, requests, 3)

		assert.Equal(t, "bbc-world", requests[0].Feed)
		assert.Equal(t, "https://n.example/one", requests[0].URL)
		assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), requests[0].PublishedAt)

		assert.Equal(t, time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC), requests[1].PublishedAt)

		assert.True(t, requests[2].PublishedAt.IsZero())
	})

	t.Run("malformed line names its number", func(t *testing.T) {
		input := "bbc-world, https://n.example/one\njust-a-feed\n"
		_, err := parseLinks(strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("empty fields rejected", func(t *testing.T) {
		_, err := parseLinks(strings.NewReader(", https://n.example/one"))
		require.Error(t, err)
	})

	t.Run("bad date rejected", func(t *testing.T) {
		_, err := parseLinks(strings.NewReader("bbc-world, https://n.example/one, yesterday"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "yesterday")
	})

	t.Run("empty input", func(t *testing.T) {
		requests, err := parseLinks(strings.NewReader("\n# only comments\n"))
		require.NoError(t, err)
		assert.Empty(t, requests)
	})
}

func TestParseDate(t *testing.T) {
	t.Run("day precision", func(t *testing.T) {
		date, err := parseDate("2026-03-09")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), date)
	})

	t.Run("rfc3339 converts to UTC", func(t *testing.T) {
		date, err := parseDate("2026-03-09T10:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC), date)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseDate("last tuesday")
		assert.Error(t, err)
	})
}

func TestParseBoosts(t *testing.T) {
	t.Run("pairs", func(t *testing.T) {
		boosts, err := parseBoosts([]string{"BBC News=0.2", "Reuters=0.05"})
		require.NoError(t, err)
		assert.InDelta(t, 0.2, boosts["BBC News"], 1e-6)
		assert.InDelta(t, 0.05, boosts["Reuters"], 1e-6)
	})

	t.Run("empty means nil", func(t *testing.T) {
		boosts, err := parseBoosts(nil)
		require.NoError(t, err)
		assert.Nil(t, boosts)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := parseBoosts([]string{"BBC News"})
		assert.Error(t, err)
	})

	t.Run("bad number", func(t *testing.T) {
		_, err := parseBoosts([]string{"BBC News=lots"})
		assert.Error(t, err)
	})
}

func TestReembedCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "newsdex",
		Commands: []*cli.Command{
			{
				Name:   "reembed",
				Usage:  "Re-encode all stored articles with a new embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
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
				},
			},
		},
	}

	t.Run("embedding-model is required", func(t *testing.T) {
		args := []string{"newsdex", "reembed", "--db", "/tmp/test"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding-model")
	})

	t.Run("missing db flag fails", func(t *testing.T) {
		args := []string{"newsdex", "reembed", "--embedding-model", "test-model"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("embedding-host has default value", func(t *testing.T) {
		cmd := app.Commands[0]
		var hostFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "embedding-host" {
				hostFlag = f
				break
			}
		}
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})

	t.Run("batch-size has default value of 100", func(t *testing.T) {
		cmd := app.Commands[0]
		var batchFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "batch-size" {
				batchFlag = f
				break
			}
		}
		require.NotNil(t, batchFlag)
		assert.Equal(t, 100, batchFlag.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		err := newApp().Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()
	os.Exit(code)
}
