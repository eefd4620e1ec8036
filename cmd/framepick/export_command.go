package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"framepick/internal/export"
	"framepick/internal/frame"
)

func newExportCommand() *cobra.Command {
	var (
		project string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Package the keeper subset into a zip bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline("")
			if err != nil {
				return err
			}
			defer p.close()

			frames, err := p.repo.LoadProject(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load project: %w", err)
			}
			var keepers []*frame.Frame
			for _, f := range frames {
				if f.Selected {
					keepers = append(keepers, f)
				}
			}

			if outDir == "" {
				outDir = cfg.Paths.ExportDir
			}
			bundlePath, err := writeBundle(outDir, project, keepers)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d keepers to %s\n", len(keepers), bundlePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name for the bundle")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from config)")
	cmd.MarkFlagRequired("project")
	return cmd
}

// writeBundle packages the keepers in memory first, so a validation failure
// leaves neither a directory nor an empty bundle file behind.
func writeBundle(outDir, project string, keepers []*frame.Frame) (string, error) {
	var buf bytes.Buffer
	if err := export.Package(&buf, project, keepers); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	bundlePath := filepath.Join(outDir, strings.TrimSpace(project)+".zip")
	if err := os.WriteFile(bundlePath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write bundle: %w", err)
	}
	return bundlePath, nil
}
