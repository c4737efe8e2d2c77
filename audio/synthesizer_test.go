package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"article-shorts-pipeline/config"
	"article-shorts-pipeline/types"
)

// fakeEngine returns a fixed duration per word instead of calling out
// to a real TTS tool.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	failText string
}

func (f *fakeEngine) Speak(_ context.Context, text, _ string, _ string) (float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.failText != "" && strings.Contains(text, f.failText) {
		return 0, fmt.Errorf("voice rejected")
	}
	return float64(len(strings.Fields(text))), nil
}

func testScript(texts ...string) *types.Script {
	s := &types.Script{Title: "t", Language: "en"}
	for i, text := range texts {
		s.Segments = append(s.Segments, types.Segment{Index: i, Text: text})
	}
	return s
}

func newTestSynthesizer(cfg config.AudioConfig, engine Engine) (*Synthesizer, *[]string) {
	var concatenated []string
	s := NewSynthesizer(cfg, engine)
	s.concat = func(files []string, outFile string) error {
		concatenated = append(concatenated[:0], files...)
		return nil
	}
	return s, &concatenated
}

func TestSynthesizePerSegmentOffsets(t *testing.T) {
	cfg := config.AudioConfig{Format: "mp3", PerSegment: true, Workers: 1}
	s, concatenated := newTestSynthesizer(cfg, &fakeEngine{})

	script := testScript("one two", "one two three", "one")
	outDir := t.TempDir()
	track, err := s.Synthesize(context.Background(), script, outDir)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if track.File != filepath.Join(outDir, "narration.mp3") {
		t.Errorf("track file %q", track.File)
	}
	want := []types.SegmentOffset{{Start: 0, End: 2}, {Start: 2, End: 5}, {Start: 5, End: 6}}
	if len(track.Offsets) != len(want) {
		t.Fatalf("got %d offsets, want %d", len(track.Offsets), len(want))
	}
	for i := range want {
		if track.Offsets[i] != want[i] {
			t.Errorf("offset %d = %+v, want %+v", i, track.Offsets[i], want[i])
		}
	}
	if track.DurationSec != 6 {
		t.Errorf("duration %.2f, want 6", track.DurationSec)
	}

	// Clips must be concatenated in segment order regardless of how the
	// engine calls interleaved.
	for i, f := range *concatenated {
		wantFile := filepath.Join(outDir, fmt.Sprintf("segment_%03d.mp3", i))
		if f != wantFile {
			t.Errorf("concat file %d = %q, want %q", i, f, wantFile)
		}
	}
}

func TestSynthesizePerSegmentConcurrent(t *testing.T) {
	cfg := config.AudioConfig{Format: "mp3", PerSegment: true, Workers: 4}
	s, concatenated := newTestSynthesizer(cfg, &fakeEngine{})

	texts := make([]string, 9)
	for i := range texts {
		texts[i] = strings.TrimSpace(strings.Repeat("w ", i+1))
	}
	script := testScript(texts...)

	track, err := s.Synthesize(context.Background(), script, t.TempDir())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(*concatenated) != 9 {
		t.Fatalf("concatenated %d clips, want 9", len(*concatenated))
	}

	// Offsets must stay contiguous and keyed to each segment's own
	// duration, not the completion order of the workers.
	var elapsed float64
	for i, off := range track.Offsets {
		if off.Start != elapsed {
			t.Errorf("offset %d starts at %.2f, want %.2f", i, off.Start, elapsed)
		}
		if got := off.Span(); got != float64(i+1) {
			t.Errorf("offset %d span %.2f, want %d", i, got, i+1)
		}
		elapsed = off.End
	}
}

func TestSynthesizePerSegmentError(t *testing.T) {
	cfg := config.AudioConfig{Format: "mp3", PerSegment: true, Workers: 2}
	s, _ := newTestSynthesizer(cfg, &fakeEngine{failText: "broken"})

	script := testScript("fine", "broken segment", "also fine")
	_, err := s.Synthesize(context.Background(), script, t.TempDir())
	if err == nil {
		t.Fatal("expected an error")
	}
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("expected SynthesisError, got %T: %v", err, err)
	}
	if synthErr.Language != "en" {
		t.Errorf("error language %q", synthErr.Language)
	}
}

// strictLanguageEngine refuses every language, like a real engine with
// no voice for the requested locale.
type strictLanguageEngine struct{}

func (strictLanguageEngine) Speak(_ context.Context, _, language, _ string) (float64, error) {
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
}

func TestSynthesizeUnsupportedLanguage(t *testing.T) {
	cfg := config.AudioConfig{Format: "mp3", PerSegment: false}
	s, _ := newTestSynthesizer(cfg, strictLanguageEngine{})

	script := testScript("hello")
	script.Language = "ja"
	_, err := s.Synthesize(context.Background(), script, t.TempDir())

	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("expected SynthesisError, got %T: %v", err, err)
	}
	// The cause stays inspectable: the run aborts rather than falling
	// back to another language.
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("ErrUnsupportedLanguage not in the chain: %v", err)
	}
}

func TestSynthesizeWhole(t *testing.T) {
	cfg := config.AudioConfig{Format: "mp3", PerSegment: false}
	engine := &fakeEngine{}
	s, _ := newTestSynthesizer(cfg, engine)

	script := testScript("one two", "three four five six")
	track, err := s.Synthesize(context.Background(), script, t.TempDir())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if len(engine.calls) != 1 {
		t.Fatalf("whole-script strategy made %d engine calls", len(engine.calls))
	}
	if engine.calls[0] != "one two three four five six" {
		t.Errorf("joined text %q", engine.calls[0])
	}
	if len(track.Offsets) != 2 {
		t.Fatalf("got %d offsets", len(track.Offsets))
	}
	// 6 words total spoken over 6s; 2 and 4 words give 2s and 4s spans.
	if track.Offsets[0].End != 2 || track.Offsets[1].End != 6 {
		t.Errorf("prorated offsets %+v", track.Offsets)
	}
}

func TestProrateOffsets(t *testing.T) {
	script := testScript("a", "a a", "a")
	offsets := ProrateOffsets(script, 8)

	wantEnds := []float64{2, 6, 8}
	var prev float64
	for i, off := range offsets {
		if off.Start != prev {
			t.Errorf("offset %d not contiguous: start %.2f after end %.2f", i, off.Start, prev)
		}
		if math.Abs(off.End-wantEnds[i]) > 1e-9 {
			t.Errorf("offset %d end %.4f, want %.2f", i, off.End, wantEnds[i])
		}
		prev = off.End
	}
	// The final offset lands exactly on the track duration, no floating
	// point residue.
	if offsets[len(offsets)-1].End != 8 {
		t.Errorf("last offset end %.10f, want exactly 8", offsets[len(offsets)-1].End)
	}
}

func TestProrateOffsetsEmptyScript(t *testing.T) {
	if got := ProrateOffsets(&types.Script{}, 5); len(got) != 0 {
		t.Errorf("expected no offsets for an empty script, got %d", len(got))
	}
}
