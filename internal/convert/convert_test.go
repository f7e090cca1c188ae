package convert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliocms/foliocms/internal/paging"
)

func TestImportMarkdown(t *testing.T) {
	c := New("", 0)

	html, err := c.Import(context.Background(), "notes.md", []byte("# Title\n\nSome *text*."))
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<em>text</em>")
}

func TestImportHTMLSanitized(t *testing.T) {
	c := New("", 0)

	html, err := c.Import(context.Background(), "page.html",
		[]byte(`<p>ok</p><script>alert(1)</script><p onclick="x()">click</p>`))
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "onclick")
	assert.Contains(t, html, "<p>ok</p>")
}

func TestSanitizePreservesPageMarkers(t *testing.T) {
	c := New("", 0)

	in := "<p>one</p>" + paging.Marker + "<p>two</p><!-- other comment -->"
	out := c.Sanitize(in)

	assert.Contains(t, out, paging.Marker, "page-break marker must survive sanitizing")
	assert.NotContains(t, out, "other comment", "ordinary comments are stripped")

	pages := paging.Split(out)
	require.Len(t, pages, 2)
}

func TestImportUnsupportedFormat(t *testing.T) {
	c := New("", 0)

	_, err := c.Import(context.Background(), "data.xlsx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestImportOfficeWithoutConverter(t *testing.T) {
	c := New("", 0)

	assert.False(t, c.Supported("report.docx"))
	_, err := c.Import(context.Background(), "report.docx", []byte("x"))
	assert.ErrorIs(t, err, ErrConverterDisabled)
}

func TestImportRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/convert", r.URL.Path)

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.docx", header.Filename)

		json.NewEncoder(w).Encode(map[string]string{
			"html": "<h1>Converted</h1><p>body</p>",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	require.True(t, c.Supported("report.docx"))

	html, err := c.Import(context.Background(), "report.docx", []byte("fake-docx"))
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Converted</h1>")
}

func TestImportRemoteStructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "corrupt_document",
			"message": "the document could not be parsed",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Import(context.Background(), "bad.odt", []byte("x"))

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.StatusCode)
	assert.Equal(t, "corrupt_document", remoteErr.Code)
	assert.Contains(t, remoteErr.Message, "could not be parsed")
}

func TestImportRemoteOpaqueError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream blew up"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Import(context.Background(), "doc.rtf", []byte("x"))

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, "unknown", remoteErr.Code)
	assert.True(t, strings.Contains(remoteErr.Message, "502"))
}
