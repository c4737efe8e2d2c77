package assemble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"article-shorts-pipeline/config"
	"article-shorts-pipeline/logger"
	"article-shorts-pipeline/types"
)

// ErrSegmentOrderMismatch means the video and audio tracks disagree on
// segment count or order; no artifact is produced.
var ErrSegmentOrderMismatch = errors.New("video and audio tracks have mismatched segments")

// ErrArtifactExists guards a prior successful final artifact from being
// overwritten without explicit instruction.
var ErrArtifactExists = errors.New("final artifact already exists")

const (
	finalVideoName   = "final_video.mp4"
	bundleVideoName  = "video.mp4"
	instructionsName = "MERGE_INSTRUCTIONS.txt"
)

// Assembler concatenates the segment clips into a silent track and
// merges it with the narration, degrading tier by tier when muxing
// capabilities are missing. Merge failures are logged, never fatal: the
// fallback bundle always succeeds given the input files exist.
type Assembler struct {
	cfg        config.AssembleConfig
	strategies []MergeStrategy

	// concat joins segment clips; swapped in tests.
	concat func(ctx context.Context, files []string, outFile string) error
}

// NewAssembler creates an Assembler with the default strategy order:
// ffmpeg copy-mux, then ffmpeg-go re-encode, then the fallback bundle.
func NewAssembler(cfg config.AssembleConfig) *Assembler {
	return &Assembler{
		cfg: cfg,
		strategies: []MergeStrategy{
			&FFmpegStrategy{cfg: cfg},
			&LibStrategy{cfg: cfg},
		},
		concat: concatClips,
	}
}

// NewAssemblerWithStrategies builds an Assembler over an explicit
// strategy list; used by tests and callers with custom toolchains.
func NewAssemblerWithStrategies(cfg config.AssembleConfig, strategies []MergeStrategy) *Assembler {
	a := NewAssembler(cfg)
	a.strategies = strategies
	return a
}

// Assemble produces the final artifact in outDir. force allows
// replacing a previous final artifact.
func (a *Assembler) Assemble(ctx context.Context, video *types.VideoTrack, audio *types.AudioTrack, outDir string, force bool) (*types.FinalArtifact, error) {
	if len(video.SegmentFiles) != len(audio.Offsets) {
		return nil, fmt.Errorf("%w: %d video segments, %d audio offsets",
			ErrSegmentOrderMismatch, len(video.SegmentFiles), len(audio.Offsets))
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create final dir: %w", err)
	}

	finalFile := filepath.Join(outDir, finalVideoName)
	if !force {
		if _, err := os.Stat(finalFile); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrArtifactExists, finalFile)
		}
	}

	// The silent track may already exist (re-assembly); otherwise join
	// the per-segment clips in order.
	silentVideo := video.File
	if silentVideo == "" {
		silentVideo = filepath.Join(outDir, "video_silent.mp4")
		if err := a.concat(ctx, video.SegmentFiles, silentVideo); err != nil {
			logger.L().Warnf("[assemble] clip concat failed: %v, bundling segment clips", err)
			return a.bundle(video, audio, outDir, "")
		}
		video.File = silentVideo
	}

	for _, strategy := range a.strategies {
		if !strategy.Available() {
			logger.L().Infof("[assemble] strategy %s unavailable, trying next tier", strategy.Name())
			continue
		}
		if err := strategy.Merge(ctx, silentVideo, audio.File, finalFile); err != nil {
			logger.L().Warnf("[assemble] strategy %s failed: %v, trying next tier", strategy.Name(), err)
			continue
		}
		logger.L().Infof("[assemble] merged via %s: %s", strategy.Name(), finalFile)
		return &types.FinalArtifact{Kind: types.ArtifactMerged, VideoFile: finalFile}, nil
	}

	logger.L().Warnf("[assemble] no muxing capability available, producing bundle")
	return a.bundle(video, audio, outDir, silentVideo)
}

// bundle emits the degraded artifact: the video and audio files plus a
// human-readable instruction file for merging them manually. Without a
// concatenated track the ordered clips are copied in instead, so the
// bundle always carries playable video.
func (a *Assembler) bundle(video *types.VideoTrack, audio *types.AudioTrack, outDir, silentVideo string) (*types.FinalArtifact, error) {
	videoOut := filepath.Join(outDir, bundleVideoName)
	var clips []string

	switch {
	case silentVideo != "":
		if err := copyFile(silentVideo, videoOut); err != nil {
			return nil, fmt.Errorf("bundle video: %w", err)
		}
	case len(video.SegmentFiles) == 1:
		if err := copyFile(video.SegmentFiles[0], videoOut); err != nil {
			return nil, fmt.Errorf("bundle video: %w", err)
		}
	default:
		videoOut = ""
		var err error
		if clips, err = a.bundleClips(video.SegmentFiles, outDir); err != nil {
			return nil, err
		}
	}

	audioOut := filepath.Join(outDir, "narration"+filepath.Ext(audio.File))
	if err := copyFile(audio.File, audioOut); err != nil {
		return nil, fmt.Errorf("bundle audio: %w", err)
	}

	instructions := filepath.Join(outDir, instructionsName)
	if err := os.WriteFile(instructions, []byte(a.instructionsText(videoOut, audioOut, clips)), 0644); err != nil {
		return nil, fmt.Errorf("write instructions: %w", err)
	}

	return &types.FinalArtifact{
		Kind:             types.ArtifactBundle,
		VideoFile:        videoOut,
		VideoSegments:    clips,
		AudioFile:        audioOut,
		InstructionsFile: instructions,
	}, nil
}

// bundleClips copies the ordered segment clips into the bundle and
// writes a concat demuxer list alongside them.
func (a *Assembler) bundleClips(segmentFiles []string, outDir string) ([]string, error) {
	clips := make([]string, len(segmentFiles))
	var lines []string
	for i, src := range segmentFiles {
		dst := filepath.Join(outDir, fmt.Sprintf("clip_%03d%s", i, filepath.Ext(src)))
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("bundle clip %d: %w", i, err)
		}
		clips[i] = dst
		lines = append(lines, fmt.Sprintf("file '%s'", filepath.Base(dst)))
	}

	listFile := filepath.Join(outDir, "clips.txt")
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("write clip list: %w", err)
	}
	return clips, nil
}

func (a *Assembler) instructionsText(videoOut, audioOut string, clips []string) string {
	var sb strings.Builder
	sb.WriteString("Manual merge instructions\n")
	sb.WriteString("=========================\n\n")
	sb.WriteString("No audio/video muxing tool was available on this machine, so the\n")
	sb.WriteString("narration and the video track were left as separate files.\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	if videoOut == "" {
		sb.WriteString("First concatenate the segment clips (listed in clips.txt, in\nplayback order):\n\n")
		for _, c := range clips {
			fmt.Fprintf(&sb, "  %s\n", filepath.Base(c))
		}
		fmt.Fprintf(&sb, "\n  ffmpeg -f concat -safe 0 -i clips.txt -c copy %s\n\n", bundleVideoName)
		videoOut = bundleVideoName
	}

	sb.WriteString("Merge the narration into the video with:\n\n")
	fmt.Fprintf(&sb, "  ffmpeg -i %s -i %s -c:v copy -c:a %s -b:a %s -shortest final_video.mp4\n",
		videoOut, audioOut, a.cfg.AudioCodec, a.cfg.AudioBitrate)
	return sb.String()
}

// concatClips joins the clips with the ffmpeg concat demuxer.
func concatClips(ctx context.Context, files []string, outFile string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}

	listFile := outFile + ".txt"
	var lines []string
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("file '%s'", f))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	if src == dst {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
