package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"framepick/internal/analysis"
	"framepick/internal/config"
	"framepick/internal/database"
	"framepick/internal/enhance"
	"framepick/internal/sampler"
	"framepick/internal/store"
	"framepick/internal/video"
	"framepick/internal/vision"
)

const version = "0.1.0"

var (
	configPath string
	cfg        config.Config
	logger     *slog.Logger
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "framepick",
		Short:         "Curate the best still frames from a video",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultPath()
			}
			loaded, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg = loaded
			logger = newLogger(cfg.LogLevel)
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/framepick/config.toml)")

	root.AddCommand(newScanCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newExportCommand())
	root.AddCommand(newCheckAICommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) { stop() }
	root.SetContext(ctx)
	return root
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	}))
}

// pipeline bundles the components assembled for one video.
type pipeline struct {
	store     *store.Store
	sampler   *sampler.Sampler
	analyzer  *analysis.Orchestrator
	enhancer  *enhance.Orchestrator
	extractor *video.Extractor
	repo      *database.ProjectRepo
	db        *database.DB
}

func (p *pipeline) close() {
	if p.extractor != nil {
		p.extractor.Cleanup()
	}
	if p.db != nil {
		p.db.Close()
	}
}

// newPipeline wires the full stack. videoPath may be empty for commands that
// only read the persisted project.
func newPipeline(videoPath string) (*pipeline, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.DatabasePath), 0o755); err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Paths.DatabasePath)
	if err != nil {
		return nil, err
	}

	st := store.New()
	client := vision.NewClient(vision.Config{
		APIKey:         cfg.Vision.APIKey,
		BaseURL:        cfg.Vision.BaseURL,
		Model:          cfg.Vision.Model,
		ImageModel:     cfg.Vision.ImageModel,
		TimeoutSeconds: cfg.Vision.TimeoutSeconds,
	}, logger)
	policy := analysis.DefaultPolicy()

	p := &pipeline{
		store:    st,
		analyzer: analysis.New(st, client, policy, logger),
		enhancer: enhance.New(st, client, policy, logger),
		repo:     database.NewProjectRepo(db),
		db:       db,
	}
	if videoPath != "" {
		extractor, err := video.NewExtractor(videoPath, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		p.extractor = extractor
		p.sampler = sampler.New(st, extractor, p.analyzer, logger)
	}
	return p, nil
}
