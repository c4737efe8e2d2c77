package types

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveJSON writes v as indented JSON. Used for articles, scripts and
// run state so hand-authored files stay diffable.
func SaveJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadArticle reads an article document from a JSON file. The file shape
// is the interchange contract with the external extractor, so unknown
// fields are tolerated but the known ones must decode cleanly.
func LoadArticle(path string) (*Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read article %s: %w", path, err)
	}
	var a Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse article %s: %w", path, err)
	}
	return &a, nil
}

// LoadScript reads a previously persisted script, allowing the pipeline
// to re-run without re-deriving from the article.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	return &s, nil
}
