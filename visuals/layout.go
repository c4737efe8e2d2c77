package visuals

import (
	"fmt"
	"strings"

	"article-shorts-pipeline/config"
)

// LayoutOverflowError is returned when a segment's text cannot fit the
// frame even at the minimum configured font size. Text is never
// silently truncated.
type LayoutOverflowError struct {
	SegmentIndex int
	Lines        int
	MaxLines     int
	FontSize     int
}

func (e *LayoutOverflowError) Error() string {
	return fmt.Sprintf("segment %d text overflows frame: %d lines (max %d) at font size %d",
		e.SegmentIndex, e.Lines, e.MaxLines, e.FontSize)
}

// layout holds a resolved text layout for one segment.
type layout struct {
	lines    []string
	fontSize int
}

// Type metrics are approximated for a proportional bold face: average
// glyph advance ~0.6 em, line height 1.5 em. Conservative on purpose so
// the overflow check errs toward shrinking rather than clipping.
const (
	charWidthEm  = 0.6
	lineHeightEm = 1.5
)

// fitText wraps the text and shrinks the font until it fits the usable
// frame area, starting from startSize down to the configured minimum.
func fitText(cfg config.VisualsConfig, text string, startSize, segmentIndex int) (layout, error) {
	usableWidth := cfg.Width - 2*cfg.MarginPx
	usableHeight := cfg.Height - 2*cfg.MarginPx

	var lastLines []string
	var lastMax int
	size := startSize
	for ; size >= cfg.MinFontSize; size -= 4 {
		maxChars := int(float64(usableWidth) / (charWidthEm * float64(size)))
		if cfg.MaxCharsPerLine > 0 && maxChars > cfg.MaxCharsPerLine {
			maxChars = cfg.MaxCharsPerLine
		}
		maxLines := int(float64(usableHeight) / (lineHeightEm * float64(size)))

		lines := wrapText(text, maxChars)
		lastLines, lastMax = lines, maxLines

		if len(lines) <= maxLines && longestLine(lines) <= maxChars {
			return layout{lines: lines, fontSize: size}, nil
		}
	}

	return layout{}, &LayoutOverflowError{
		SegmentIndex: segmentIndex,
		Lines:        len(lastLines),
		MaxLines:     lastMax,
		FontSize:     cfg.MinFontSize,
	}
}

// wrapText word-wraps text at maxChars per line. A single word longer
// than the limit gets its own line and is caught by the overflow check.
func wrapText(text string, maxChars int) []string {
	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= maxChars:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func longestLine(lines []string) int {
	max := 0
	for _, l := range lines {
		if len(l) > max {
			max = len(l)
		}
	}
	return max
}

// fadeSeconds is the enter/exit fade length for a clip of the given
// duration: fraction of the duration, clamped so the two fades together
// never consume more than 40% of the clip.
func fadeSeconds(durationSec, fraction float64) float64 {
	fade := fraction * durationSec
	if limit := 0.2 * durationSec; fade > limit {
		fade = limit
	}
	if fade < 0 {
		fade = 0
	}
	return fade
}
