package visuals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"article-shorts-pipeline/logger"
)

// BackgroundPicker selects a configured background image for a segment
// by matching the segment's style hint against per-file tags. Selection
// is deterministic: best score wins, ties broken by filename.
type BackgroundPicker struct {
	dir  string
	tags map[string][]string
}

// NewBackgroundPicker loads the background tag index. An empty dir
// yields a picker that always falls back to the solid color background.
func NewBackgroundPicker(dir, tagsPath string) (*BackgroundPicker, error) {
	p := &BackgroundPicker{dir: dir, tags: map[string][]string{}}
	if dir == "" || tagsPath == "" {
		return p, nil
	}

	tags, err := loadTagsJSON(tagsPath)
	if err != nil {
		return nil, fmt.Errorf("load background tags: %w", err)
	}
	p.tags = tags
	return p, nil
}

// Pick returns the background image path for the style hint, or ""
// when no image is configured.
func (p *BackgroundPicker) Pick(styleHint string) string {
	if p == nil || len(p.tags) == 0 {
		return ""
	}

	files := make([]string, 0, len(p.tags))
	for f := range p.tags {
		files = append(files, f)
	}
	sort.Strings(files)

	best := files[0]
	bestScore := -1
	for _, f := range files {
		score := 0
		for _, t := range p.tags[f] {
			if strings.EqualFold(t, styleHint) {
				score += 10
			}
		}
		if score > bestScore {
			best, bestScore = f, score
		}
	}

	full := filepath.Join(p.dir, best)
	logger.L().Debugf("[visuals] background for %q: %s", styleHint, best)
	return full
}

// loadTagsJSON reads a filename→tags map; keys starting with "_" are
// documentation entries and skipped.
func loadTagsJSON(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.L().Warnf("[visuals] background tags not found at %s, using solid color", path)
			return map[string][]string{}, nil
		}
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	result := make(map[string][]string)
	for k, v := range raw {
		if strings.HasPrefix(k, "_") {
			continue
		}
		var tags []string
		if err := json.Unmarshal(v, &tags); err != nil {
			continue
		}
		result[k] = tags
	}
	return result, nil
}
