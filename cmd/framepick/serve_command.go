package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"framepick/internal/api"
)

func newServeCommand() *cobra.Command {
	var (
		inputPath string
		bind      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the frame library API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(inputPath)
			if err != nil {
				return err
			}
			defer p.close()

			// Resume the previously persisted project, if any.
			frames, err := p.repo.LoadProject(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load project: %w", err)
			}
			if len(frames) > 0 {
				p.store.SetAll(frames)
				logger.Info("restored persisted project", "frames", len(frames))
			}

			app := &api.App{
				Store:    p.store,
				Sampler:  p.sampler,
				Analyzer: p.analyzer,
				Enhancer: p.enhancer,
				Repo:     p.repo,
				Logger:   logger,
			}

			if bind == "" {
				bind = cfg.Paths.APIBind
			}
			server := &http.Server{
				Addr:    bind,
				Handler: api.NewRouter(app),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("framepick API listening", "bind", bind)
				errCh <- server.ListenAndServe()
			}()

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to video (enables scanning)")
	cmd.Flags().StringVarP(&bind, "bind", "b", "", "Bind address (default from config)")
	return cmd
}
