package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framepick/internal/vision"
)

func newCheckAICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-ai",
		Short: "Verify the vision capability credentials and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := vision.NewClient(vision.Config{
				APIKey:         cfg.Vision.APIKey,
				BaseURL:        cfg.Vision.BaseURL,
				Model:          cfg.Vision.Model,
				ImageModel:     cfg.Vision.ImageModel,
				TimeoutSeconds: cfg.Vision.TimeoutSeconds,
			}, logger)

			if err := client.HealthCheck(cmd.Context()); err != nil {
				return fmt.Errorf("vision capability check failed: %w", err)
			}
			fmt.Println("Vision capability OK")
			return nil
		},
	}
}
