// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package paging splits rich-text content bodies into display pages on a
// literal page-break marker and derives per-page titles. Splitting is a pure
// function of the body: identical input always yields identical pages, so the
// stored page index on a content row is a cache, never a source of truth.
package paging

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker is the literal token embedded in rich-text bodies that marks a page
// boundary. It must round-trip through the rich-text editor unescaped. The
// marker is matched unconditionally, even inside code blocks or attribute
// values; there is no escaping mechanism.
const Marker = "<!-- page -->"

// titleMaxLen is the truncation length for paragraph-derived page titles.
const titleMaxLen = 50

// Page is one display page of a multi-page content body.
type Page struct {
	Number int    `json:"page"`
	Title  string `json:"title"`
	Body   string `json:"-"`
}

// Split divides a body into ordered pages on Marker. Fragments that are empty
// after trimming are discarded and the survivors renumbered 1..N. A body with
// no surviving fragments (including the empty body) yields a single page
// holding the original body, so the result always has at least one page.
func Split(body string) []Page {
	fragments := strings.Split(body, Marker)

	pages := make([]Page, 0, len(fragments))
	for _, frag := range fragments {
		if strings.TrimSpace(frag) == "" {
			continue
		}
		pages = append(pages, Page{Body: frag})
	}

	if len(pages) == 0 {
		pages = append(pages, Page{Body: body})
	}

	for i := range pages {
		pages[i].Number = i + 1
		pages[i].Title = pageTitle(pages[i].Body, i+1)
	}

	return pages
}

// Index returns the serialized page index (page numbers, titles, and marker
// byte offsets) and the page count for a body. The result is what gets stored
// on the content row; it is recomputed on every body write so it cannot drift
// from the body.
func Index(body string) (breaksJSON string, pageCount int, err error) {
	pages := Split(body)

	type indexEntry struct {
		Page     int    `json:"page"`
		Title    string `json:"title"`
		Position int    `json:"position"`
	}

	entries := make([]indexEntry, len(pages))
	offset := 0
	for i, p := range pages {
		pos := 0
		if i > 0 {
			pos = strings.Index(body[offset:], Marker)
			if pos >= 0 {
				pos += offset
				offset = pos + len(Marker)
			} else {
				pos = 0
			}
		}
		entries[i] = indexEntry{Page: p.Number, Title: p.Title, Position: pos}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return "", 0, fmt.Errorf("marshaling page index: %w", err)
	}
	return string(data), len(pages), nil
}

// pageTitle derives a title for a page fragment. Priority: text of the first
// heading element, then the first paragraph's text truncated to titleMaxLen
// runes with an ellipsis, then "Page N".
func pageTitle(fragment string, number int) string {
	if title := firstHeadingText(fragment); strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if text := firstParagraphText(fragment); strings.TrimSpace(text) != "" {
		return truncate(strings.TrimSpace(text), titleMaxLen)
	}
	return fmt.Sprintf("Page %d", number)
}

// headingAtoms are the elements considered headings for title derivation.
var headingAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// firstHeadingText returns the text content of the first heading element in
// the fragment, or "" if there is none or the fragment cannot be parsed.
func firstHeadingText(fragment string) string {
	return findText(fragment, func(n *html.Node) bool {
		return n.Type == html.ElementNode && headingAtoms[n.DataAtom]
	})
}

// firstParagraphText returns the text content of the first <p> element in the
// fragment, or "" if there is none.
func firstParagraphText(fragment string) string {
	return findText(fragment, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.P
	})
}

// findText parses the fragment and returns the collected text of the first
// node matching the predicate, in document order.
func findText(fragment string, match func(*html.Node) bool) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if match(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found == nil {
		return ""
	}

	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(found)
	return sb.String()
}

// truncate shortens s to max runes, appending an ellipsis when truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
