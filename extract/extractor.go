package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"article-shorts-pipeline/logger"
	"article-shorts-pipeline/types"
)

const userAgent = "Mozilla/5.0 (compatible; ArticleShortsPipeline/1.0)"

// ExtractionError reports a failed article extraction: unreachable
// source, paywall, or an unparsable page.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract %s: %v", e.URL, e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor fetches a page and normalizes it into an Article using
// readability for boilerplate removal and goquery for block structure.
type Extractor struct {
	client *http.Client
}

// New creates an Extractor with the given request timeout.
func New(timeout time.Duration) *Extractor {
	return &Extractor{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and parses the article at rawURL.
func (e *Extractor) Fetch(ctx context.Context, rawURL string) (*types.Article, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ExtractionError{URL: rawURL, Err: fmt.Errorf("invalid url: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &ExtractionError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &ExtractionError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ExtractionError{URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{URL: rawURL, Err: err}
	}

	art, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, &ExtractionError{URL: rawURL, Err: fmt.Errorf("readability: %w", err)}
	}

	blocks, images, err := ParseBlocks(art.Content)
	if err != nil {
		return nil, &ExtractionError{URL: rawURL, Err: err}
	}
	if len(blocks) == 0 {
		return nil, &ExtractionError{URL: rawURL, Err: fmt.Errorf("no content blocks found")}
	}

	published, tags := pageMeta(body)

	article := &types.Article{
		URL:           rawURL,
		Title:         art.Title,
		Author:        art.Byline,
		PublishedDate: published,
		Content:       blocks,
		Summary:       strings.TrimSpace(art.Excerpt),
		Images:        images,
		Tags:          tags,
	}

	logger.L().Infof("[extract] %q: %d blocks, %d images", article.Title, len(blocks), len(images))
	return article, nil
}

// ParseBlocks walks the cleaned article HTML in document order and
// emits one Block per heading, paragraph, quote and list item, plus the
// referenced images.
func ParseBlocks(html string) ([]types.Block, []types.Image, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("parse content html: %w", err)
	}

	var blocks []types.Block
	var images []types.Image

	doc.Find("h1, h2, h3, h4, p, blockquote, li, img").Each(func(_ int, sel *goquery.Selection) {
		name := goquery.NodeName(sel)

		if name == "img" {
			src, ok := sel.Attr("src")
			if !ok || src == "" {
				return
			}
			alt, _ := sel.Attr("alt")
			images = append(images, types.Image{URL: src, Alt: alt})
			blocks = append(blocks, types.Block{Type: types.BlockImage, Text: alt})
			return
		}

		// Text elements nested inside a matched container (a <p> in a
		// blockquote, a <li> of a nested list) would duplicate their
		// text: the container's own text already includes it.
		if sel.ParentsFiltered("blockquote, li").Length() > 0 {
			return
		}

		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}

		var blockType types.BlockType
		switch name {
		case "h1":
			blockType = types.BlockH1
		case "h2":
			blockType = types.BlockH2
		case "h3":
			blockType = types.BlockH3
		case "h4":
			blockType = types.BlockH4
		case "blockquote":
			blockType = types.BlockQuote
		case "li":
			blockType = types.BlockListItem
		default:
			blockType = types.BlockP
		}
		blocks = append(blocks, types.Block{Type: blockType, Text: collapseWhitespace(text)})
	})

	return blocks, images, nil
}

// pageMeta pulls publication date and tags from the raw page's meta
// tags. Missing metadata is not an error.
func pageMeta(body []byte) (published string, tags []string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", nil
	}

	if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		published = v
	}

	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, sel *goquery.Selection) {
		if v, ok := sel.Attr("content"); ok && strings.TrimSpace(v) != "" {
			tags = append(tags, strings.TrimSpace(v))
		}
	})
	if len(tags) == 0 {
		if v, ok := doc.Find(`meta[name="keywords"]`).Attr("content"); ok {
			for _, t := range strings.Split(v, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
		}
	}
	return published, tags
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
