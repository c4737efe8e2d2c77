package audio

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultVoice(t *testing.T) {
	cases := []struct{ language, want string }{
		{"en", "en-US-GuyNeural"},
		{"en-GB", "en-US-GuyNeural"},
		{"fr", "fr-FR-HenriNeural"},
		{"de-DE", "de-DE-ConradNeural"},
		{"pt", "pt-BR-AntonioNeural"},
	}
	for _, tc := range cases {
		got, err := defaultVoice(tc.language)
		if err != nil {
			t.Errorf("defaultVoice(%q): %v", tc.language, err)
			continue
		}
		if got != tc.want {
			t.Errorf("defaultVoice(%q) = %q, want %q", tc.language, got, tc.want)
		}
	}
}

func TestDefaultVoiceUnknownLanguage(t *testing.T) {
	for _, language := range []string{"ja", "xx", ""} {
		if _, err := defaultVoice(language); !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("defaultVoice(%q): expected ErrUnsupportedLanguage, got %v", language, err)
		}
	}
}

func TestSpeakRejectsUnknownLanguage(t *testing.T) {
	// Without an explicit voice the engine must refuse rather than
	// narrate in the English fallback.
	e := &CommandEngine{Command: "edge-tts"}
	_, err := e.Speak(context.Background(), "hello", "ja", filepath.Join(t.TempDir(), "out.mp3"))
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestSpeakExplicitVoiceSkipsLanguageCheck(t *testing.T) {
	// A canceled context stops the command before it ever starts; the
	// point is only that the voice map is not consulted.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &CommandEngine{Command: "edge-tts", Voice: "ja-JP-KeitaNeural"}
	_, err := e.Speak(ctx, "hello", "ja", filepath.Join(t.TempDir(), "out.mp3"))
	if errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatal("configured voice must override the language map")
	}
	if err == nil {
		t.Fatal("expected a context error")
	}
}

func TestSpeakNoBackoffAfterFinalAttempt(t *testing.T) {
	var delays int
	e := &CommandEngine{
		Command:    "no-such-tts-binary-for-tests",
		retryDelay: func(int) time.Duration { delays++; return 0 },
	}
	_, err := e.Speak(context.Background(), "hello", "en", filepath.Join(t.TempDir(), "out.mp3"))
	if err == nil {
		t.Fatal("expected the missing binary to fail")
	}
	// Three attempts mean two waits between them; the loop must not
	// sleep again once no retry is left.
	if delays != maxSpeakAttempts-1 {
		t.Errorf("backoff ran %d times, want %d", delays, maxSpeakAttempts-1)
	}
}

func TestBuildCmdEdgeTTS(t *testing.T) {
	e := &CommandEngine{Command: "edge-tts"}
	cmd := e.buildCmd(context.Background(), "hello", "fr", "fr-FR-HenriNeural", "out.mp3")

	args := strings.Join(cmd.Args, " ")
	for _, want := range []string{"--voice fr-FR-HenriNeural", "--text hello", "--write-media out.mp3"} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q: %s", want, args)
		}
	}
}

func TestBuildCmdPythonScript(t *testing.T) {
	e := &CommandEngine{Command: "speak.py"}
	cmd := e.buildCmd(context.Background(), "hello", "en", "", "out.mp3")

	if cmd.Args[0] != "python3" || cmd.Args[1] != "speak.py" {
		t.Errorf("python script not run through python3: %v", cmd.Args)
	}
}

func TestBuildCmdGeneric(t *testing.T) {
	e := &CommandEngine{Command: "my-tts"}
	cmd := e.buildCmd(context.Background(), "hello", "en", "", "out.mp3")

	args := strings.Join(cmd.Args, " ")
	for _, want := range []string{"--text hello", "--language en", "--output out.mp3"} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q: %s", want, args)
		}
	}
}
