package visuals

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"article-shorts-pipeline/config"
	"article-shorts-pipeline/logger"
	"article-shorts-pipeline/types"
)

// Renderer produces one vertical clip per script segment: a background
// (solid color or configured image) with the segment text overlaid,
// faded in and out. Identical inputs always produce identical clips.
type Renderer struct {
	cfg         config.VisualsConfig
	backgrounds *BackgroundPicker

	// run executes ffmpeg; swapped in tests.
	run func(ctx context.Context, args []string) error
}

// NewRenderer creates a Renderer.
func NewRenderer(cfg config.VisualsConfig) (*Renderer, error) {
	picker, err := NewBackgroundPicker(cfg.BackgroundsDir, cfg.BackgroundTags)
	if err != nil {
		return nil, err
	}
	return &Renderer{cfg: cfg, backgrounds: picker, run: runFFmpeg}, nil
}

// Render writes the clip for one segment to outFile. targetSec is the
// actual audio span when synthesis already happened, otherwise the
// script estimate; both orders are supported.
func (r *Renderer) Render(ctx context.Context, seg types.Segment, targetSec float64, outFile string) error {
	startSize := r.cfg.FontSize
	if seg.StyleHint == "heading" || seg.StyleHint == "title" {
		startSize = r.cfg.HeadingFontSize
	}

	lay, err := fitText(r.cfg, seg.Text, startSize, seg.Index)
	if err != nil {
		return err
	}

	// drawtext reads the overlay from a file so no shell escaping of
	// the narration text is ever needed.
	textFile := strings.TrimSuffix(outFile, filepath.Ext(outFile)) + ".txt"
	if err := os.WriteFile(textFile, []byte(strings.Join(lay.lines, "\n")), 0644); err != nil {
		return fmt.Errorf("write overlay text: %w", err)
	}

	args := r.buildArgs(targetSec, textFile, lay.fontSize, r.backgrounds.Pick(seg.StyleHint), outFile)
	if err := r.run(ctx, args); err != nil {
		return fmt.Errorf("render segment %d: %w", seg.Index, err)
	}
	return nil
}

// RenderAll renders every segment concurrently into index-keyed files
// under outDir and returns the ordered video track. durations must
// align one-to-one with the script segments.
func (r *Renderer) RenderAll(ctx context.Context, script *types.Script, durations []float64, outDir string) (*types.VideoTrack, error) {
	if len(durations) != len(script.Segments) {
		return nil, fmt.Errorf("durations (%d) do not match segments (%d)", len(durations), len(script.Segments))
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create video dir: %w", err)
	}

	n := len(script.Segments)
	files := make([]string, n)

	workers := r.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	jobs := make(chan int, n)
	errs := make(chan error, n)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outFile := filepath.Join(outDir, fmt.Sprintf("segment_%03d.mp4", i))
				if err := r.Render(ctx, script.Segments[i], durations[i], outFile); err != nil {
					errs <- err
					continue
				}
				files[i] = outFile
				logger.L().Debugf("[visuals] segment %d/%d rendered (%.2fs)", i+1, n, durations[i])
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}

	logger.L().Infof("[visuals] %d segment clips rendered in %s", n, outDir)
	return &types.VideoTrack{
		SegmentFiles:     files,
		SegmentDurations: durations,
		Width:            r.cfg.Width,
		Height:           r.cfg.Height,
	}, nil
}

// buildArgs assembles the ffmpeg invocation. Bitexact flags and a
// stripped metadata map keep the output byte-stable across runs.
func (r *Renderer) buildArgs(durationSec float64, textFile string, fontSize int, background, outFile string) []string {
	args := []string{"-y"}

	var filters []string
	if background == "" {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("color=c=%s:s=%dx%d:r=%d", r.cfg.BackgroundColor, r.cfg.Width, r.cfg.Height, r.cfg.FPS))
	} else {
		args = append(args, "-loop", "1", "-i", background)
		filters = append(filters, fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
			r.cfg.Width, r.cfg.Height, r.cfg.Width, r.cfg.Height))
	}

	lineSpacing := int(float64(fontSize) * (lineHeightEm - 1.0))
	drawtext := fmt.Sprintf(
		"drawtext=textfile='%s':fontsize=%d:fontcolor=%s:line_spacing=%d:x=(w-text_w)/2:y=(h-text_h)/2",
		textFile, fontSize, r.cfg.TextColor, lineSpacing)
	if r.cfg.FontFile != "" {
		drawtext += fmt.Sprintf(":fontfile='%s'", r.cfg.FontFile)
	}
	filters = append(filters, drawtext)

	if fade := fadeSeconds(durationSec, r.cfg.FadeFraction); fade > 0 {
		filters = append(filters,
			fmt.Sprintf("fade=t=in:st=0:d=%.3f", fade),
			fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", durationSec-fade, fade))
	}
	filters = append(filters, "format=yuv420p")

	args = append(args,
		"-vf", strings.Join(filters, ","),
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-r", fmt.Sprintf("%d", r.cfg.FPS),
		"-fflags", "+bitexact",
		"-flags:v", "+bitexact",
		"-map_metadata", "-1",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-an",
		outFile,
	)
	return args
}

func runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
