package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"framepick/internal/frame"
	"framepick/internal/sampler"
)

func newScanCommand() *cobra.Command {
	var (
		inputPath string
		interval  int
		rangeName string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Sample and analyze frames from a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rangeName == "" {
				rangeName = cfg.Scan.Range
			}
			scanRange, err := sampler.ParseRange(rangeName)
			if err != nil {
				return err
			}
			if interval == 0 {
				interval = cfg.Scan.Interval
			}

			p, err := newPipeline(inputPath)
			if err != nil {
				return err
			}
			defer p.close()

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription("Sampling frames"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
			p.sampler.OnProgress = func(fraction float64) {
				bar.Set(int(fraction * 100))
			}

			ctx := cmd.Context()
			sampled, err := p.sampler.Scan(ctx, sampler.Settings{
				Range:    scanRange,
				Interval: interval,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "\nSampled %d frames, waiting for analysis...\n", sampled)
			p.analyzer.Wait()
			p.store.SetScanActive(false)

			frames := p.store.All()
			if err := p.repo.SaveProject(ctx, frames); err != nil {
				return fmt.Errorf("failed to persist project: %w", err)
			}

			printScanSummary(frames)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to video")
	cmd.Flags().IntVarP(&interval, "interval", "n", 0, "Seconds between samples (min 1)")
	cmd.Flags().StringVarP(&rangeName, "range", "r", "", "Scan range: full, first-half, second-half, q1..q4 (default from config)")
	cmd.MarkFlagRequired("input")
	return cmd
}

func printScanSummary(frames []*frame.Frame) {
	counts := map[frame.Quality]int{}
	selected := 0
	for _, f := range frames {
		counts[f.Quality()]++
		if f.Selected {
			selected++
		}
	}
	fmt.Printf("Analyzed %d frames: %d Excellent, %d Good, %d Fair (%d auto-selected)\n",
		len(frames),
		counts[frame.QualityExcellent],
		counts[frame.QualityGood],
		counts[frame.QualityFair],
		selected)
}
