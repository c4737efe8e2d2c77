package script

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"article-shorts-pipeline/config"
	"article-shorts-pipeline/logger"
	"article-shorts-pipeline/types"
)

// ErrEmptyArticle is returned when the article carries no narratable
// content blocks.
var ErrEmptyArticle = errors.New("article has no narratable content")

// Composer turns an article into an ordered narration script.
// Given the same article, language and config, the output is identical
// on every run.
type Composer struct {
	cfg config.ScriptConfig
}

// NewComposer creates a Composer.
func NewComposer(cfg config.ScriptConfig) *Composer {
	return &Composer{cfg: cfg}
}

// Compose derives the script: headings become short standalone cue
// segments, paragraphs are split at sentence boundaries when their
// estimated spoken length exceeds the configured maximum. Sentences are
// never split; a single over-budget sentence is kept whole.
func (c *Composer) Compose(article *types.Article, language string) (*types.Script, error) {
	var segments []types.Segment

	for i, block := range article.Content {
		text := strings.TrimSpace(block.Text)
		if text == "" || block.Type == types.BlockImage {
			continue
		}

		if block.Type.IsHeading() {
			segments = append(segments, c.segment(text, i, "heading"))
			continue
		}

		hint := "body"
		if block.Type == types.BlockQuote {
			hint = "quote"
		}
		for _, chunk := range c.splitParagraph(text) {
			segments = append(segments, c.segment(chunk, i, hint))
		}
	}

	if len(segments) == 0 {
		return nil, ErrEmptyArticle
	}

	if c.cfg.Framing {
		intro := introText(article)
		outro := outroText()
		framed := make([]types.Segment, 0, len(segments)+2)
		framed = append(framed, c.segment(intro, -1, "title"))
		framed = append(framed, segments...)
		framed = append(framed, c.segment(outro, -1, "outro"))
		segments = framed
	}

	for i := range segments {
		segments[i].Index = i
	}

	s := &types.Script{
		Title:    article.Title,
		Language: language,
		Segments: segments,
	}
	logger.L().Infof("[script] composed %d segments, ~%.1fs total", len(s.Segments), s.TotalEstimatedSec())
	return s, nil
}

func (c *Composer) segment(text string, sourceBlock int, hint string) types.Segment {
	return types.Segment{
		Text:         text,
		SourceBlock:  sourceBlock,
		EstimatedSec: c.Estimate(text),
		StyleHint:    hint,
	}
}

// Estimate is the planning estimate for speaking the text: word count
// over the configured rate, plus the inter-segment pause.
func (c *Composer) Estimate(text string) float64 {
	words := len(strings.Fields(text))
	return float64(words)/float64(c.cfg.SpeakingRateWPM)*60 + c.cfg.PauseSec
}

// splitParagraph groups a paragraph's sentences greedily so every chunk
// stays under the maximum segment duration. The cap is soft: a sentence
// that alone exceeds it becomes its own chunk, whole.
func (c *Composer) splitParagraph(text string) []string {
	if c.Estimate(text) <= c.cfg.MaxSegmentSec {
		return []string{text}
	}

	var chunks []string
	var current string
	for _, sentence := range SplitSentences(text) {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if current == "" || c.Estimate(candidate) <= c.cfg.MaxSegmentSec {
			current = candidate
			continue
		}
		chunks = append(chunks, current)
		current = sentence
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// SplitSentences splits prose at sentence boundaries: a terminator
// (. ! ?) optionally followed by closing quotes or brackets, then
// whitespace. Decimal points and mid-token dots never match because a
// boundary requires trailing whitespace.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && isClosing(runes[end]) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start:end]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		for end < len(runes) && unicode.IsSpace(runes[end]) {
			end++
		}
		start = end
		i = end - 1
	}

	if start < len(runes) {
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	}
	return false
}

func introText(article *types.Article) string {
	intro := fmt.Sprintf("Today we are looking at \"%s\".", article.Title)
	if article.Author != "" {
		intro += fmt.Sprintf(" Written by %s.", article.Author)
	}
	return intro
}

func outroText() string {
	return "That was the short version. You can find the full article linked in the description."
}
