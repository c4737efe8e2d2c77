package metadata

import (
	"fmt"
	"strings"
	"unicode"

	"article-shorts-pipeline/config"
	"article-shorts-pipeline/types"
)

const (
	titleMaxChars = 70
	maxTags       = 30
)

// Build derives platform metadata for the finished short from the
// source article. Purely a function of its inputs: the same article and
// config always produce the same metadata.
func Build(article *types.Article, cfg config.UploadConfig) *types.VideoMetadata {
	return &types.VideoMetadata{
		Title:           ClampTitle(article.Title, titleMaxChars),
		Description:     buildDescription(article),
		Tags:            normalizeTags(article.Tags),
		CategoryID:      cfg.CategoryID,
		Visibility:      cfg.Visibility,
		DefaultLanguage: cfg.DefaultLanguage,
	}
}

// ClampTitle shortens a title to max characters, cutting at a word
// boundary and appending an ellipsis when truncated. Counted in runes
// so multibyte titles are never cut mid-character.
func ClampTitle(title string, max int) string {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}

	cut := max - 1
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = max - 1
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}

func buildDescription(article *types.Article) string {
	var sb strings.Builder
	if article.Summary != "" {
		sb.WriteString(article.Summary)
		sb.WriteString("\n\n")
	}
	if article.Author != "" {
		fmt.Fprintf(&sb, "Original article by %s.\n", article.Author)
	}
	if article.URL != "" {
		fmt.Fprintf(&sb, "Read the full article: %s\n", article.URL)
	}
	return strings.TrimSpace(sb.String())
}

// normalizeTags lowercases, deduplicates and caps the article tags.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}
