package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"article-shorts-pipeline/logger"
)

// Engine is the external text-to-speech collaborator: it speaks text in
// the given language into outFile and reports the clip duration.
type Engine interface {
	Speak(ctx context.Context, text, language, outFile string) (float64, error)
}

// ErrUnsupportedLanguage means no voice exists for the requested
// language. The run aborts; narration is never silently produced in a
// different language.
var ErrUnsupportedLanguage = errors.New("no voice for language")

const maxSpeakAttempts = 3

// CommandEngine shells out to a TTS command. The command must accept
// --text and an output path; edge-tts and Python scripts get their
// native argument forms.
type CommandEngine struct {
	Command string
	Voice   string

	// retryDelay computes the backoff before the next attempt;
	// swapped in tests.
	retryDelay func(attempt int) time.Duration
}

// NewCommandEngine resolves the engine command: the configured command
// when set, otherwise edge-tts if present on PATH.
func NewCommandEngine(command, voice string) (*CommandEngine, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		if _, err := exec.LookPath("edge-tts"); err != nil {
			return nil, fmt.Errorf("no TTS engine: set tts_command or install edge-tts")
		}
		command = "edge-tts"
	}
	return &CommandEngine{Command: command, Voice: voice}, nil
}

// Speak runs the TTS command with up to three attempts, then measures
// the produced clip with ffprobe.
func (e *CommandEngine) Speak(ctx context.Context, text, language, outFile string) (float64, error) {
	voice := e.Voice
	if e.Command == "edge-tts" && voice == "" {
		v, err := defaultVoice(language)
		if err != nil {
			return 0, err
		}
		voice = v
	}

	delay := e.retryDelay
	if delay == nil {
		delay = func(attempt int) time.Duration {
			return time.Duration(attempt) * 2 * time.Second
		}
	}

	var err error
	for attempt := 1; attempt <= maxSpeakAttempts; attempt++ {
		err = e.buildCmd(ctx, text, language, voice, outFile).Run()
		if err == nil {
			break
		}
		logger.L().Warnf("[audio] TTS attempt %d failed: %v", attempt, err)
		if attempt == maxSpeakAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(delay(attempt)):
		}
	}
	if err != nil {
		return 0, fmt.Errorf("tts command: %w", err)
	}
	return ProbeDuration(outFile)
}

func (e *CommandEngine) buildCmd(ctx context.Context, text, language, voice, outFile string) *exec.Cmd {
	var cmd *exec.Cmd
	switch {
	case e.Command == "edge-tts":
		cmd = exec.CommandContext(ctx, "edge-tts",
			"--voice", voice,
			"--text", text,
			"--write-media", outFile,
		)
	case strings.HasSuffix(e.Command, ".py"):
		cmd = exec.CommandContext(ctx, "python3", e.Command,
			"--text", text,
			"--language", language,
			"--output", outFile,
		)
	default:
		cmd = exec.CommandContext(ctx, e.Command,
			"--text", text,
			"--language", language,
			"--output", outFile,
		)
	}
	cmd.Stderr = os.Stderr
	return cmd
}

// defaultVoice maps a language code onto an edge-tts voice. Codes
// outside the map are an error, never an English fallback.
func defaultVoice(language string) (string, error) {
	switch strings.ToLower(strings.SplitN(language, "-", 2)[0]) {
	case "en":
		return "en-US-GuyNeural", nil
	case "fr":
		return "fr-FR-HenriNeural", nil
	case "de":
		return "de-DE-ConradNeural", nil
	case "es":
		return "es-ES-AlvaroNeural", nil
	case "it":
		return "it-IT-DiegoNeural", nil
	case "pt":
		return "pt-BR-AntonioNeural", nil
	}
	return "", fmt.Errorf("%w: %q (set audio.voice explicitly)", ErrUnsupportedLanguage, language)
}

// ProbeDuration reads a media file's duration in seconds via ffprobe.
func ProbeDuration(file string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		file,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", file, err)
	}
	var dur float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return dur, nil
}
