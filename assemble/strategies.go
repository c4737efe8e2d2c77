package assemble

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"article-shorts-pipeline/config"
)

// MergeStrategy is one way of muxing the silent video with the
// narration track. The assembler walks an ordered list and uses the
// first strategy whose probe succeeds; a failed Merge falls through to
// the next tier.
type MergeStrategy interface {
	Name() string
	Available() bool
	Merge(ctx context.Context, videoFile, audioFile, outFile string) error
}

// FFmpegStrategy muxes by invoking the ffmpeg binary directly: video
// stream copied unmodified, audio re-encoded, output trimmed to the
// shorter track.
type FFmpegStrategy struct {
	cfg config.AssembleConfig
}

func (s *FFmpegStrategy) Name() string { return "ffmpeg" }

func (s *FFmpegStrategy) Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

func (s *FFmpegStrategy) Merge(ctx context.Context, videoFile, audioFile, outFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-i", audioFile,
		"-c:v", "copy",
		"-c:a", s.cfg.AudioCodec,
		"-b:a", s.cfg.AudioBitrate,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		"-movflags", "+faststart",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg mux: %w", err)
	}
	return nil
}

// LibStrategy merges through the ffmpeg-go composition library. Unlike
// the copy-mux tier it re-encodes the video stream, which recovers
// inputs whose codecs reject stream copy.
type LibStrategy struct {
	cfg config.AssembleConfig
}

func (s *LibStrategy) Name() string { return "ffmpeg-go" }

func (s *LibStrategy) Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

func (s *LibStrategy) Merge(ctx context.Context, videoFile, audioFile, outFile string) error {
	if err := s.compile(ctx, videoFile, audioFile, outFile).Run(); err != nil {
		return fmt.Errorf("ffmpeg-go mux: %w", err)
	}
	return nil
}

// compile builds the merge graph: video and audio as two real inputs
// with stream selectors, so the codec options bind to the output rather
// than to the second input.
func (s *LibStrategy) compile(ctx context.Context, videoFile, audioFile, outFile string) *ffmpeg.Stream {
	inputs := []*ffmpeg.Stream{
		ffmpeg.Input(videoFile).Get("v"),
		ffmpeg.Input(audioFile).Get("a"),
	}
	return ffmpeg.OutputContext(ctx, inputs, outFile, ffmpeg.KwArgs{
		"c:v":      "libx264",
		"preset":   "fast",
		"c:a":      s.cfg.AudioCodec,
		"b:a":      s.cfg.AudioBitrate,
		"shortest": "",
	}).OverWriteOutput()
}
