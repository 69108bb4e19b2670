// Command dm-organizer fetches X direct-message conversations,
// summarizes them, and exports the result as CSV rows for the
// spreadsheet writer.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/xdmtools/dm-organizer/pkg/client"
	"github.com/xdmtools/dm-organizer/pkg/config"
	"github.com/xdmtools/dm-organizer/pkg/directory"
	"github.com/xdmtools/dm-organizer/pkg/export"
	"github.com/xdmtools/dm-organizer/pkg/fetch"
	"github.com/xdmtools/dm-organizer/pkg/logging"
	"github.com/xdmtools/dm-organizer/pkg/ratelimit"
	"github.com/xdmtools/dm-organizer/pkg/summarize"
)

func main() {
	app := &cli.App{
		Name:  "dm-organizer",
		Usage: "Fetch X DM conversations into summarized spreadsheet rows",
		Commands: []*cli.Command{
			{
				Name:   "verify",
				Usage:  "verify API credentials and exit",
				Action: runVerify,
			},
			{
				Name:  "fetch",
				Usage: "fetch conversations and export them as CSV",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "participant-id",
						Usage: "participant user id to fetch (repeatable)",
					},
					&cli.IntFlag{
						Name:  "discover-recent",
						Usage: "discover N recent DM participants instead of providing ids",
					},
					&cli.IntFlag{
						Name:  "max-messages",
						Usage: "maximum messages per conversation (overrides config)",
					},
					&cli.IntFlag{
						Name:  "since-days",
						Usage: "only fetch messages from the last N days",
					},
					&cli.BoolFlag{
						Name:  "no-summaries",
						Usage: "skip summary generation",
					},
					&cli.StringFlag{
						Name:  "out",
						Value: "conversations.csv",
						Usage: "output CSV path ('-' for stdout)",
					},
				},
				Action: runFetch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config, configures logging, and builds the client stack.
func setup() (*config.Config, *client.Client, *ratelimit.Tracker, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, zerolog.Logger{}, err
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	tracker := ratelimit.NewTracker(logging.NewLogger("ratelimit"))

	creds := client.Credentials{
		APIKey:            cfg.API.Key,
		APISecret:         cfg.API.Secret,
		AccessToken:       cfg.API.AccessToken,
		AccessTokenSecret: cfg.API.AccessTokenSecret,
	}

	clientCfg := client.DefaultConfig(creds, oauthSigner(creds), tracker)
	clientCfg.BaseURL = cfg.API.BaseURL
	clientCfg.HTTPTimeout = cfg.API.Timeout

	api, err := client.New(clientCfg)
	if err != nil {
		return nil, nil, nil, logger, fmt.Errorf("build API client: %w", err)
	}

	return cfg, api, tracker, logger, nil
}

// oauthSigner returns the request signing capability. OAuth 1.0a
// header construction is delegated to the deployment environment; the
// default signer forwards the access token for proxy setups that sign
// upstream.
func oauthSigner(creds client.Credentials) client.Signer {
	return client.SignerFunc(func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		return nil
	})
}

func runVerify(c *cli.Context) error {
	_, api, _, logger, err := setup()
	if err != nil {
		return err
	}

	identity, err := api.VerifyIdentity(c.Context)
	if err != nil {
		return fmt.Errorf("credential verification failed: %w", err)
	}

	logger.Info().
		Str("user_id", identity.ID).
		Str("username", identity.Username).
		Msg("Setup verified, all systems ready")
	return nil
}

func runFetch(c *cli.Context) error {
	cfg, api, tracker, logger, err := setup()
	if err != nil {
		return err
	}
	ctx := c.Context

	identity, err := api.VerifyIdentity(ctx)
	if err != nil {
		return fmt.Errorf("credential verification failed: %w", err)
	}

	participantIDs := c.StringSlice("participant-id")
	if n := c.Int("discover-recent"); n > 0 {
		discovered, err := fetch.DiscoverRecentParticipants(ctx, api, identity.ID, n)
		if err != nil {
			return fmt.Errorf("participant discovery failed: %w", err)
		}
		participantIDs = discovered
	}
	if len(participantIDs) == 0 {
		return fmt.Errorf("no participants: pass --participant-id or --discover-recent")
	}

	dir := directory.New(api)
	paginator := fetch.NewPaginator(api, dir, tracker, fetch.PaginatorConfig{
		PageDelay: cfg.Fetch.PageDelay,
	})
	orch := fetch.NewOrchestrator(paginator, fetch.OrchestratorConfig{
		MaxWorkers:  cfg.Fetch.MaxWorkers,
		PacingDelay: cfg.Fetch.PacingDelay,
	})

	opts := fetch.Options{MaxMessages: cfg.Fetch.MaxMessages}
	if n := c.Int("max-messages"); n > 0 {
		opts.MaxMessages = n
	}
	if days := c.Int("since-days"); days > 0 {
		opts.Since = time.Now().AddDate(0, 0, -days)
	}

	batch := orch.FetchAll(ctx, participantIDs, opts)
	if len(batch.Conversations) == 0 {
		return fmt.Errorf("no conversations fetched (%d requested)", batch.Requested)
	}

	if !c.Bool("no-summaries") {
		var summarizer summarize.Summarizer = summarize.Fallback{}
		if cfg.Gemini.APIKey != "" {
			gemini, err := summarize.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
			if err != nil {
				logger.Warn().Err(err).Msg("Gemini unavailable, using fallback summarizer")
			} else {
				summarizer = gemini
			}
		}
		summarize.Batch(ctx, summarizer, batch)
	}

	rows := export.FormatBatch(batch)
	if err := writeRows(c.String("out"), rows); err != nil {
		return err
	}

	stats := export.ComputeStatistics(batch)
	logger.Info().
		Int("conversations", stats.TotalConversations).
		Int("requested", batch.Requested).
		Int("messages", stats.TotalMessages).
		Float64("avg_messages", stats.AverageMessages).
		Float64("summary_completion_pct", stats.CompletionRate).
		Msg("Workflow completed")

	return nil
}

func writeRows(path string, rows []export.Row) error {
	if path == "-" {
		return export.WriteCSV(os.Stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	if err := export.WriteCSV(f, rows); err != nil {
		return err
	}
	return f.Sync()
}

