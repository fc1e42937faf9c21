package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"layoff-watch/tracker/internal/config"
	"layoff-watch/tracker/internal/database"
	"layoff-watch/tracker/internal/dataset"
	"layoff-watch/tracker/internal/detect"
	"layoff-watch/tracker/internal/extract"
	"layoff-watch/tracker/internal/feeds"
	"layoff-watch/tracker/internal/metrics"
	"layoff-watch/tracker/internal/notify"
	"layoff-watch/tracker/internal/process"
	"layoff-watch/tracker/internal/runlog"
	"layoff-watch/tracker/internal/server"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg := config.DefaultConfig()
	log.Logger = log.Logger.Level(cfg.LogLevel)

	rootCmd := newRootCmd(cfg)
	rootCmd.AddCommand(newServeCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("layoffwatch failed")
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "layoffwatch",
		Short:         "Track layoff and early-retirement news from RSS feeds",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runJob(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.FeedsPath, "feeds", config.DefaultFeedsPath, "Path to the feed list, one URL per line")
	cmd.Flags().StringVar(&cfg.OutputPath, "output", config.DefaultOutputPath, "Path to the JSON dataset")
	cmd.Flags().IntVar(&cfg.MaxItems, "max-items", config.DefaultMaxItems, "Number of records kept in the dataset")
	cmd.Flags().StringVar(&cfg.LogDir, "log-dir", config.DefaultLogDir, "Directory of the daily run logs")
	cmd.Flags().StringVar(&cfg.Region, "region", config.DefaultRegion, "Region stamped on every record")
	return cmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve the event archive and dataset over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DBPath == "" {
				return fmt.Errorf("--db or %s is required", config.EnvDBPath)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.DBPath, "db", cfg.DBPath, fmt.Sprintf("Path to the SQLite event archive (env: %s)", config.EnvDBPath))
	cmd.Flags().StringVar(&cfg.OutputPath, "output", config.DefaultOutputPath, "Path to the JSON dataset")
	cmd.Flags().StringVar(&cfg.ServerHost, "host", cfg.ServerHost, fmt.Sprintf("Host to bind the server to (env: %s)", config.EnvHost))
	cmd.Flags().IntVar(&cfg.ServerPort, "port", cfg.ServerPort, fmt.Sprintf("Port to listen on (env: %s)", config.EnvPort))
	return cmd
}

// runJob executes one tracker run. Only configuration problems and a failed
// dataset write are returned as errors.
func runJob(ctx context.Context, cfg *config.Config) error {
	opts := runlog.Options{Dir: cfg.LogDir, ConsoleLevel: cfg.LogLevel}
	if cfg.Console {
		opts.Console = os.Stderr
	}
	rl, err := runlog.Open(opts)
	if err != nil {
		return err
	}
	defer rl.Close()
	logger := rl.Logger

	table := detect.DefaultTable()
	if cfg.RulesPath != "" {
		if table, err = detect.LoadTable(cfg.RulesPath); err != nil {
			return err
		}
	}

	httpClient := &http.Client{}
	if err := feeds.EnsureList(ctx, httpClient, cfg.FeedsPath, cfg.RemoteFeedsURL); err != nil {
		logger.Warn().Err(err).Str("path", cfg.FeedsPath).Msg("feed_list_download_failed")
	}
	urls, err := feeds.LoadList(cfg.FeedsPath)
	if err != nil {
		return err
	}

	var sender notify.Sender
	if ws := notify.NewWebhookSender(cfg.WebhookURL); ws != nil {
		sender = ws
	}

	m := metrics.New()
	jobOpts := []process.Option{process.WithMetrics(m)}

	var db *database.DB
	if cfg.DBPath != "" {
		db, err = database.NewDB(database.NewConfig(cfg.DBPath))
		if err != nil {
			logger.Error().Err(err).Str("path", cfg.DBPath).Msg("archive_error")
		} else {
			defer db.Close()
			jobOpts = append(jobOpts, process.WithArchive(db))
		}
	}

	job := process.NewJob(
		urls,
		feeds.NewFetcher(httpClient, cfg.UserAgent),
		extract.New(table, extract.WithRegion(cfg.Region)),
		dataset.NewStore(cfg.OutputPath, cfg.MaxItems, logger),
		notify.New(sender, notify.DefaultThreshold, logger),
		logger,
		jobOpts...,
	)

	started := time.Now()
	report, err := job.Run(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("feeds", len(report.Feeds)).
		Int("extracted", report.Extracted).
		Int("written", report.Written).
		Int("alerts", len(report.Alerts)).
		Dur("duration", time.Since(started)).
		Msg("Run finished")

	if db != nil && cfg.RetentionDays > 0 {
		purged, err := db.PurgeEvents(ctx, cfg.RetentionDays)
		if err != nil {
			logger.Error().Err(err).Msg("archive_error")
		} else if purged > 0 {
			logger.Info().Int64("purged", purged).Msg("archive_purged")
		}
	}

	if cfg.MetricsPath != "" {
		if err := m.WriteTextfile(cfg.MetricsPath); err != nil {
			logger.Warn().Err(err).Str("path", cfg.MetricsPath).Msg("metrics_write_failed")
		}
	}
	return nil
}

// runServer opens the archive read-only and serves the HTTP API until ctx is
// cancelled.
func runServer(ctx context.Context, cfg *config.Config) error {
	dbCfg := database.NewConfig(cfg.DBPath)
	dbCfg.ReadOnly = true

	db, err := database.NewDB(dbCfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to initialize database")
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	store := dataset.NewStore(cfg.OutputPath, 0, log.Logger)
	m := metrics.New()
	m.DatasetWritten(len(store.Load()))

	deps := server.Deps{DB: db, Store: store, Metrics: m}
	return server.RunServer(ctx, deps, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}
