package paging

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSplitNoMarkers(t *testing.T) {
	body := "<p>Just one page of text.</p>"
	pages := Split(body)

	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Number != 1 {
		t.Errorf("Number = %d, want 1", pages[0].Number)
	}
	if pages[0].Body != body {
		t.Errorf("Body = %q, want original body", pages[0].Body)
	}
}

func TestSplitEmptyBody(t *testing.T) {
	pages := Split("")

	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Title != "Page 1" {
		t.Errorf("Title = %q, want %q", pages[0].Title, "Page 1")
	}
	if pages[0].Body != "" {
		t.Errorf("Body = %q, want empty", pages[0].Body)
	}
}

func TestSplitTwoPagesWithHeadings(t *testing.T) {
	body := "<h2>Intro</h2><p>Hi</p><!-- page --><h2>Chapter 1</h2><p>Text</p>"
	pages := Split(body)

	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Title != "Intro" {
		t.Errorf("page 1 Title = %q, want %q", pages[0].Title, "Intro")
	}
	if pages[1].Title != "Chapter 1" {
		t.Errorf("page 2 Title = %q, want %q", pages[1].Title, "Chapter 1")
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("page numbers = %d, %d, want 1, 2", pages[0].Number, pages[1].Number)
	}
}

func TestSplitDiscardsEmptyFragments(t *testing.T) {
	body := "<!-- page --><p>A</p><!-- page --><!-- page --><p>B</p><!-- page -->"
	pages := Split(body)

	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Number != i+1 {
			t.Errorf("page %d Number = %d, want contiguous numbering", i, p.Number)
		}
	}
	if !strings.Contains(pages[0].Body, "A") || !strings.Contains(pages[1].Body, "B") {
		t.Error("pages out of original order")
	}
}

func TestSplitOnlyMarkers(t *testing.T) {
	body := "<!-- page --><!-- page -->"
	pages := Split(body)

	// No non-empty fragments: the whole original body is a single page.
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Body != body {
		t.Errorf("Body = %q, want original body", pages[0].Body)
	}
}

func TestSplitIdempotentOnFragments(t *testing.T) {
	body := "<h2>A</h2><p>one</p><!-- page --><h2>B</h2><p>two</p><!-- page --><p>three</p>"
	pages := Split(body)

	for _, p := range pages {
		again := Split(p.Body)
		if len(again) != 1 {
			t.Fatalf("re-splitting page %d produced %d pages, want 1", p.Number, len(again))
		}
		if again[0].Body != p.Body {
			t.Errorf("re-splitting page %d changed the body", p.Number)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	body := "<p>alpha</p><!-- page --><p>beta</p>"
	first := Split(body)
	second := Split(body)

	if len(first) != len(second) {
		t.Fatalf("page counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("page %d differs between runs", i+1)
		}
	}
}

func TestPageTitleParagraphTruncation(t *testing.T) {
	long := strings.Repeat("x", 60)
	pages := Split("<p>" + long + "</p>")

	want := strings.Repeat("x", 50) + "..."
	if pages[0].Title != want {
		t.Errorf("Title = %q, want %q", pages[0].Title, want)
	}

	// Short paragraphs are not ellipsis-appended.
	pages = Split("<p>short</p>")
	if pages[0].Title != "short" {
		t.Errorf("Title = %q, want %q", pages[0].Title, "short")
	}
}

func TestPageTitleFallback(t *testing.T) {
	pages := Split("<div>no heading or paragraph here</div>")
	if pages[0].Title != "Page 1" {
		t.Errorf("Title = %q, want %q", pages[0].Title, "Page 1")
	}
}

func TestPageTitleHeadingBeatsParagraph(t *testing.T) {
	pages := Split("<p>lead text</p><h3>Actual Title</h3>")
	if pages[0].Title != "Actual Title" {
		t.Errorf("Title = %q, want %q", pages[0].Title, "Actual Title")
	}
}

func TestSplitMarkerInsideCodeBlock(t *testing.T) {
	// Markers split unconditionally, even inside <pre>/<code>.
	body := "<pre><code>before <!-- page --> after</code></pre>"
	pages := Split(body)

	if len(pages) != 2 {
		t.Fatalf("expected 2 pages (marker is not escaped in code blocks), got %d", len(pages))
	}
}

func TestIndex(t *testing.T) {
	body := "<h2>One</h2><!-- page --><h2>Two</h2><!-- page --><h2>Three</h2>"
	breaksJSON, count, err := Index(body)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	var entries []struct {
		Page     int    `json:"page"`
		Title    string `json:"title"`
		Position int    `json:"position"`
	}
	if err := json.Unmarshal([]byte(breaksJSON), &entries); err != nil {
		t.Fatalf("unmarshaling index: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Position != 0 {
		t.Errorf("first page position = %d, want 0", entries[0].Position)
	}
	if entries[1].Position <= 0 || entries[2].Position <= entries[1].Position {
		t.Errorf("marker positions not increasing: %d, %d", entries[1].Position, entries[2].Position)
	}
	if entries[1].Title != "Two" {
		t.Errorf("entry 2 title = %q, want %q", entries[1].Title, "Two")
	}
}

func TestIndexSinglePage(t *testing.T) {
	breaksJSON, count, err := Index("<p>only</p>")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if breaksJSON == "" {
		t.Error("expected non-empty index JSON")
	}
}
