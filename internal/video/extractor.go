// Package video provides the host video capability: duration probing and
// seek-to-timestamp single frame capture via ffmpeg/ffprobe.
package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Extractor rasterizes single frames from a video file.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	videoPath   string
	tempDir     string
	logger      *slog.Logger
}

// NewExtractor locates ffmpeg/ffprobe and prepares a temp workspace for the
// given video file.
func NewExtractor(videoPath string, logger *slog.Logger) (*Extractor, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		// Duration falls back to parsing ffmpeg output.
		ffprobePath = ""
	}

	tempDir, err := os.MkdirTemp("", "framepick-frames-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		videoPath:   videoPath,
		tempDir:     tempDir,
		logger:      logger,
	}, nil
}

// Duration returns the total video duration in seconds. Sampling waits on
// this before resolving a scan range.
func (e *Extractor) Duration(ctx context.Context) (float64, error) {
	if e.ffprobePath != "" {
		cmd := exec.CommandContext(ctx, e.ffprobePath,
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			e.videoPath)

		var stdout bytes.Buffer
		cmd.Stdout = &stdout
		if err := cmd.Run(); err == nil {
			if duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64); err == nil && duration > 0 {
				return duration, nil
			}
		}
	}

	// Fallback: parse "Duration: HH:MM:SS.ss" from ffmpeg stderr.
	cmd := exec.CommandContext(ctx, e.ffmpegPath, "-i", e.videoPath, "-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	return parseFFmpegDuration(stderr.String())
}

func parseFFmpegDuration(output string) (float64, error) {
	const prefix = "Duration: "
	start := strings.Index(output, prefix)
	if start == -1 {
		return 0, fmt.Errorf("duration not found in ffmpeg output")
	}
	start += len(prefix)
	end := strings.Index(output[start:], ",")
	if end == -1 {
		return 0, fmt.Errorf("invalid duration format")
	}
	parts := strings.Split(output[start:start+end], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration format: %s", output[start:start+end])
	}
	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	return hours*3600 + minutes*60 + seconds, nil
}

// Capture seeks to the timestamp and rasterizes the visible frame as a JPEG
// no wider than maxWidth, height scaled proportionally.
func (e *Extractor) Capture(ctx context.Context, timestamp float64, maxWidth int) ([]byte, error) {
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("frame_%.2f.jpg", timestamp))
	defer os.Remove(tempFile)

	args := []string{
		"-ss", fmt.Sprintf("%.2f", timestamp),
		"-i", e.videoPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':-2", maxWidth),
		"-q:v", "2",
		"-f", "mjpeg",
		tempFile,
	}
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		e.logger.Debug("ffmpeg capture failed", "timestamp", timestamp, "stderr", stderr.String())
		return nil, fmt.Errorf("failed to capture frame at %.2fs: %w", timestamp, err)
	}

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open captured frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Cleanup removes the temp workspace.
func (e *Extractor) Cleanup() error {
	return os.RemoveAll(e.tempDir)
}
