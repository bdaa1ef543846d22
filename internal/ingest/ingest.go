// Package ingest turns HTML pages into markdown so they can be rendered
// like any other document. It picks the content region of the page,
// drops page chrome and converts the rest.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// ErrNoMatch is returned when a selector matches nothing.
var ErrNoMatch = errors.New("selector matched no elements")

// noiseSelectors are removed before conversion. They carry no text worth
// rendering in a terminal.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer",
	"img", "picture", "figure",
	"iframe", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
}

// HTMLToMarkdown converts html to markdown. With a selector, every match
// is converted in document order. Without one the first of <main>,
// <article> or <body> is used.
func HTMLToMarkdown(r io.Reader, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	content, err := contentRegion(doc, selector)
	if err != nil {
		return "", err
	}

	var parts []string
	var convErr error
	content.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		html, err := goquery.OuterHtml(s)
		if err != nil {
			convErr = fmt.Errorf("serializing content: %w", err)
			return false
		}
		md, err := htmltomarkdown.ConvertString(html)
		if err != nil {
			convErr = fmt.Errorf("converting HTML to markdown: %w", err)
			return false
		}
		if md = strings.TrimSpace(md); md != "" {
			parts = append(parts, md)
		}
		return true
	})
	if convErr != nil {
		return "", convErr
	}

	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}

// HTMLStringToMarkdown is HTMLToMarkdown for a string.
func HTMLStringToMarkdown(html, selector string) (string, error) {
	return HTMLToMarkdown(strings.NewReader(html), selector)
}

func contentRegion(doc *goquery.Document, selector string) (*goquery.Selection, error) {
	if selector != "" {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoMatch, selector)
		}
		return sel, nil
	}

	// <main> is the most specific, then <article>, then <body>.
	for _, tag := range []string{"main", "article", "body"} {
		if sel := doc.Find(tag); sel.Length() > 0 {
			return sel.First(), nil
		}
	}
	return nil, fmt.Errorf("no content container found in HTML")
}

// LooksLikeHTML reports whether data starts like an HTML document.
func LooksLikeHTML(data []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(data[:min(len(data), 512)])))
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.HasPrefix(head, "<body")
}
