package assemble

import (
	"context"
	"strings"
	"testing"
)

// indexOfPair finds "flag value" in the compiled argument list.
func indexOfPair(args []string, flag, value string) int {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return i
		}
	}
	return -1
}

func TestLibStrategyCompiledArgs(t *testing.T) {
	s := &LibStrategy{cfg: testConfig()}
	args := s.compile(context.Background(), "video.mp4", "audio.mp3", "out.mp4").GetArgs()

	videoIn := indexOfPair(args, "-i", "video.mp4")
	audioIn := indexOfPair(args, "-i", "audio.mp3")
	if videoIn < 0 || audioIn < 0 {
		t.Fatalf("inputs missing from compiled args: %v", args)
	}
	if videoIn > audioIn {
		t.Errorf("video input must come first: %v", args)
	}

	// Codec and map options are output options: everything placed
	// between the two -i flags would bind to the audio input instead.
	for _, pair := range [][2]string{
		{"-c:v", "libx264"},
		{"-c:a", "aac"},
		{"-b:a", "192k"},
		{"-preset", "fast"},
		{"-map", "0:v"},
		{"-map", "1:a"},
	} {
		idx := indexOfPair(args, pair[0], pair[1])
		if idx < 0 {
			t.Errorf("compiled args missing %s %s: %v", pair[0], pair[1], args)
			continue
		}
		if idx < audioIn {
			t.Errorf("%s %s compiled before the audio input and binds to it: %v", pair[0], pair[1], args)
		}
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-shortest") {
		t.Errorf("compiled args missing -shortest: %v", args)
	}
	if !strings.Contains(joined, "-y") {
		t.Errorf("compiled args missing overwrite flag: %v", args)
	}
}
