package types

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestScriptRoundTrip(t *testing.T) {
	script := &Script{
		Title:    "Round Trip",
		Language: "en",
		Segments: []Segment{
			{Index: 0, Text: "Hello.", SourceBlock: 0, EstimatedSec: 1.5, StyleHint: "heading"},
			{Index: 1, Text: "World.", SourceBlock: 1, EstimatedSec: 2.25, StyleHint: "body"},
		},
	}

	path := filepath.Join(t.TempDir(), "script.json")
	if err := SaveJSON(path, script); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	loaded, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if !reflect.DeepEqual(script, loaded) {
		t.Errorf("round trip changed the script:\n%+v\n%+v", script, loaded)
	}
}

func TestArticleRoundTrip(t *testing.T) {
	article := &Article{
		URL:           "https://example.com/a",
		Title:         "A",
		Author:        "B",
		PublishedDate: "2024-01-02",
		Content: []Block{
			{Type: BlockH1, Text: "A"},
			{Type: BlockP, Text: "Body."},
		},
		Summary: "S",
		Images:  []Image{{URL: "https://example.com/i.png", Alt: "alt"}},
		Tags:    []string{"one"},
	}

	path := filepath.Join(t.TempDir(), "article.json")
	if err := SaveJSON(path, article); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	loaded, err := LoadArticle(path)
	if err != nil {
		t.Fatalf("LoadArticle: %v", err)
	}
	if !reflect.DeepEqual(article, loaded) {
		t.Errorf("round trip changed the article")
	}
}

// The JSON field names are an interchange contract with hand-authored
// article files; renaming a Go field must not silently change them.
func TestArticleJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(&Article{
		PublishedDate: "2024-01-02",
		Content:       []Block{{Type: BlockP, Text: "x"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"published_date"`, `"content"`, `"type":"P"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("article JSON missing %s:\n%s", key, data)
		}
	}

	segData, err := json.Marshal(&Segment{SourceBlock: 3, EstimatedSec: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"source_block"`, `"estimated_sec"`, `"style_hint"`} {
		if !strings.Contains(string(segData), key) {
			t.Errorf("segment JSON missing %s:\n%s", key, segData)
		}
	}
}

func TestBlockTypeIsHeading(t *testing.T) {
	for _, bt := range []BlockType{BlockH1, BlockH2, BlockH3, BlockH4} {
		if !bt.IsHeading() {
			t.Errorf("%s should be a heading", bt)
		}
	}
	for _, bt := range []BlockType{BlockP, BlockQuote, BlockListItem, BlockImage} {
		if bt.IsHeading() {
			t.Errorf("%s should not be a heading", bt)
		}
	}
}

func TestScriptTotalEstimatedSec(t *testing.T) {
	s := &Script{Segments: []Segment{{EstimatedSec: 1.5}, {EstimatedSec: 2.5}}}
	if got := s.TotalEstimatedSec(); got != 4 {
		t.Errorf("total %.2f, want 4", got)
	}
}

func TestSegmentOffsetSpan(t *testing.T) {
	if got := (SegmentOffset{Start: 1.5, End: 4}).Span(); got != 2.5 {
		t.Errorf("span %.2f, want 2.5", got)
	}
}
