package handlers

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/kevinaaaquil/bookmemory/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importContainer = `<container><rootfiles><rootfile full-path="content.opf"/></rootfiles></container>`

func epubFile(t *testing.T, opf string, extra map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string][]byte{
		"META-INF/container.xml": []byte(importContainer),
		"content.opf":            []byte(opf),
	}
	for k, v := range extra {
		files[k] = v
	}
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type importJSON struct {
	bookJSON
	ISBN          string `json:"isbn"`
	MetadataFound bool   `json:"metadata_found"`
}

func (ts *testServer) importEPUB(token, filename string, content []byte) (int, importJSON, []byte) {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(ts.t, err)
	_, err = fw.Write(content)
	require.NoError(ts.t, err)
	require.NoError(ts.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/books/import", &buf)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.srv.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)

	var out importJSON
	if resp.StatusCode == http.StatusCreated {
		require.NoError(ts.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out, raw
}

const duneOPF = `<package><metadata>
  <title>Dune (EPUB edition)</title>
  <creator>F. Herbert</creator>
  <identifier scheme="ISBN">978-0-441-17271-9</identifier>
  <meta name="cover" content="cov"/>
</metadata><manifest>
  <item id="cov" href="cover.png" media-type="image/png"/>
</manifest></package>`

func TestImportWithMetadataAndCover(t *testing.T) {
	ts := newTestServer(t)
	a := ts.signup("alice")
	ts.lookup.meta = &service.BookMetadata{
		Title:         "Dune",
		Author:        "Frank Herbert",
		CoverImageURL: "https://covers.example.com/dune.jpg",
		ISBN:          "9780441172719",
	}

	status, got, raw := ts.importEPUB(a, "frank_herbert-dune.epub",
		epubFile(t, duneOPF, map[string][]byte{"cover.png": pngHeader}))
	require.Equal(t, http.StatusCreated, status, string(raw))

	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Frank Herbert", *got.Author)
	assert.Equal(t, "want_to_read", got.Status)
	assert.Equal(t, "frank herbert dune", *got.TitleGuess)
	assert.Equal(t, "9780441172719", got.ISBN)
	assert.True(t, got.MetadataFound)
	require.NotNil(t, got.CoverImageURL)
	assert.Equal(t, fmt.Sprintf("/api/books/%d/cover", got.ID), *got.CoverImageURL, "embedded cover wins over the linked one")
	assert.Equal(t, 1, ts.covers.count())

	var books []bookJSON
	require.Equal(t, http.StatusOK, ts.doJSON(http.MethodGet, "/api/books", a, nil, &books))
	require.Len(t, books, 1)
	assert.Equal(t, got.ID, books[0].ID)
}

func TestImportStoresSniffedCoverType(t *testing.T) {
	ts := newTestServer(t)
	a := ts.signup("alice")
	ts.lookup.err = service.ErrNoMatch
	opf := strings.Replace(duneOPF, `media-type="image/png"`, `media-type="image/jpeg"`, 1)

	status, got, raw := ts.importEPUB(a, "dune.epub", epubFile(t, opf, map[string][]byte{"cover.png": pngHeader}))
	require.Equal(t, http.StatusCreated, status, string(raw))
	require.NotNil(t, got.CoverImageURL)

	resp, err := ts.srv.Client().Get(ts.srv.URL + *got.CoverImageURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestRemoveCoverLogsFailures(t *testing.T) {
	covers := newMemCovers()
	covers.deleteErr = errors.New("bucket unavailable")
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	req := httptest.NewRequest(http.MethodPost, "/api/books/import", nil)
	req = req.WithContext(logger.WithContext(req.Context()))

	removeCover(req, covers, "covers/1/2.png")
	assert.Contains(t, logs.String(), "delete cover object")
	assert.Contains(t, logs.String(), "covers/1/2.png")
	assert.Contains(t, logs.String(), "bucket unavailable")

	logs.Reset()
	removeCover(req, covers, "")
	removeCover(req, nil, "covers/1/2.png")
	assert.Empty(t, logs.String())
}

func TestImportWithoutMetadataMatch(t *testing.T) {
	ts := newTestServer(t)
	a := ts.signup("alice")
	ts.lookup.err = service.ErrNoMatch

	status, got, raw := ts.importEPUB(a, "dune.epub", epubFile(t, duneOPF, nil))
	require.Equal(t, http.StatusCreated, status, string(raw))
	assert.Equal(t, "Dune (EPUB edition)", got.Title)
	assert.Equal(t, "F. Herbert", *got.Author)
	assert.False(t, got.MetadataFound)
	assert.Nil(t, got.CoverImageURL)
	assert.Equal(t, 0, ts.covers.count())
}

func TestImportFallsBackToFilename(t *testing.T) {
	ts := newTestServer(t)
	a := ts.signup("alice")

	status, got, raw := ts.importEPUB(a, "the_left_hand_of_darkness.epub",
		epubFile(t, `<package><metadata/></package>`, nil))
	require.Equal(t, http.StatusCreated, status, string(raw))
	assert.Equal(t, "the left hand of darkness", got.Title)
	assert.Empty(t, got.ISBN)
	assert.Nil(t, got.Author)
}

func TestImportRejections(t *testing.T) {
	ts := newTestServer(t)
	a := ts.signup("alice")

	status, _, raw := ts.importEPUB(a, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "only epub files can be imported", decodeError(t, raw).Error)

	status, _, raw = ts.importEPUB(a, "broken.epub", []byte("not a zip"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "file is not a valid epub", decodeError(t, raw).Error)

	status, _, _ = ts.importEPUB("", "dune.epub", epubFile(t, duneOPF, nil))
	assert.Equal(t, http.StatusUnauthorized, status)

	var books []bookJSON
	require.Equal(t, http.StatusOK, ts.doJSON(http.MethodGet, "/api/books", a, nil, &books))
	assert.Empty(t, books)
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "frank herbert dune", titleFromFilename("frank_herbert-dune.epub"))
	assert.Equal(t, "Dune", titleFromFilename("/tmp/uploads/Dune.epub"))
	assert.Equal(t, "", titleFromFilename(".epub"))
}
