package audio

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

// SynthesisError is a terminal narration failure: the TTS collaborator
// was unreachable or rejected the language. There is no fallback to a
// different language.
type SynthesisError struct {
	Language string
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("narration synthesis (language %s): %v", e.Language, e.Err)
}
func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer turns a script into a narration track through the TTS
// engine. Two strategies: one call per segment (exact offsets) or one
// call for the whole script (offsets prorated by word-count share).
type Synthesizer struct {
	cfg    config.AudioConfig
	engine Engine

	// concat joins clip files into one track; swapped in tests.
	concat func(files []string, outFile string) error
}

// NewSynthesizer creates a Synthesizer backed by the given engine.
func NewSynthesizer(cfg config.AudioConfig, engine Engine) *Synthesizer {
	return &Synthesizer{cfg: cfg, engine: engine, concat: ffmpegConcat}
}

// Synthesize produces the narration track for the script in outDir.
// One offset per segment, monotonically non-decreasing and contiguous.
func (s *Synthesizer) Synthesize(ctx context.Context, script *types.Script, outDir string) (*types.AudioTrack, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	if s.cfg.PerSegment {
		return s.synthesizePerSegment(ctx, script, outDir)
	}
	return s.synthesizeWhole(ctx, script, outDir)
}

// synthesizePerSegment speaks each segment into its own clip, records
// the measured durations as exact offsets, then concatenates the clips.
func (s *Synthesizer) synthesizePerSegment(ctx context.Context, script *types.Script, outDir string) (*types.AudioTrack, error) {
	n := len(script.Segments)
	files := make([]string, n)
	durations := make([]float64, n)

	workers := s.cfg.Workers
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
				seg := script.Segments[i]
				outFile := filepath.Join(outDir, fmt.Sprintf("segment_%03d.%s", i, s.cfg.Format))
				dur, err := s.engine.Speak(ctx, seg.Text, script.Language, outFile)
				if err != nil {
					errs <- fmt.Errorf("segment %d: %w", i, err)
					continue
				}
				files[i] = outFile
				durations[i] = dur
				logger.L().Debugf("[audio] segment %d/%d: %.2fs", i+1, n, dur)
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
		return nil, &SynthesisError{Language: script.Language, Err: err}
	}

	finalFile := filepath.Join(outDir, "narration."+s.cfg.Format)
	if err := s.concat(files, finalFile); err != nil {
		return nil, &SynthesisError{Language: script.Language, Err: fmt.Errorf("concatenate clips: %w", err)}
	}

	track := &types.AudioTrack{File: finalFile, Offsets: make([]types.SegmentOffset, n)}
	var elapsed float64
	for i, dur := range durations {
		track.Offsets[i] = types.SegmentOffset{Start: elapsed, End: elapsed + dur}
		elapsed += dur
	}
	track.DurationSec = elapsed

	logger.L().Infof("[audio] narration ready: %s (%.1fs, %d segments)", finalFile, elapsed, n)
	return track, nil
}

// synthesizeWhole speaks the full script in one call and prorates the
// total duration across segments by word-count share. The inter-segment
// pause is folded into each prorated span rather than tracked apart.
func (s *Synthesizer) synthesizeWhole(ctx context.Context, script *types.Script, outDir string) (*types.AudioTrack, error) {
	texts := make([]string, len(script.Segments))
	for i, seg := range script.Segments {
		texts[i] = seg.Text
	}
	fullText := strings.Join(texts, " ")

	outFile := filepath.Join(outDir, "narration."+s.cfg.Format)
	total, err := s.engine.Speak(ctx, fullText, script.Language, outFile)
	if err != nil {
		return nil, &SynthesisError{Language: script.Language, Err: err}
	}

	track := &types.AudioTrack{
		File:        outFile,
		DurationSec: total,
		Offsets:     ProrateOffsets(script, total),
	}
	logger.L().Infof("[audio] narration ready: %s (%.1fs, prorated offsets)", outFile, total)
	return track, nil
}

// ProrateOffsets distributes total seconds across the segments in
// proportion to each segment's word count. Offsets are contiguous and
// end exactly at total.
func ProrateOffsets(script *types.Script, total float64) []types.SegmentOffset {
	words := make([]int, len(script.Segments))
	var sum int
	for i, seg := range script.Segments {
		words[i] = len(strings.Fields(seg.Text))
		sum += words[i]
	}

	offsets := make([]types.SegmentOffset, len(script.Segments))
	var cum int
	start := 0.0
	for i := range offsets {
		cum += words[i]
		end := total
		if sum > 0 && i < len(offsets)-1 {
			end = total * float64(cum) / float64(sum)
		}
		offsets[i] = types.SegmentOffset{Start: start, End: end}
		start = end
	}
	return offsets
}

// ffmpegConcat joins the clips with the concat demuxer, stream-copied.
func ffmpegConcat(files []string, outFile string) error {
	listFile := outFile + ".txt"
	var lines []string
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("file '%s'", f))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}

	cmd := exec.Command("ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outFile,
	)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
