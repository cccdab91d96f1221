package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/service"
	"github.com/kevinaaaquil/bookmemory/store"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"
)

const contentTypeEPUB = "application/epub+zip"

// ImportHandler creates books from uploaded EPUB files.
type ImportHandler struct {
	DB             store.Store
	Covers         CoverStorage   // optional
	Metadata       MetadataLookup // optional
	Now            Clock
	MaxUploadBytes int64
}

// ImportOut is the created book plus what was learned from the file.
type ImportOut struct {
	models.Book
	ISBN          string `json:"isbn,omitempty"`
	MetadataFound bool   `json:"metadata_found"`
}

// Import reads title, author, ISBN and cover from a multipart "file" EPUB and
// creates a want_to_read book from them. When the EPUB carries an ISBN the
// metadata service fills in title and author; the embedded cover is stored
// like an uploaded one. POST /api/books/import
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	file, header, ok := formFile(w, r, h.MaxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".epub" && !strings.HasPrefix(header.Header.Get("Content-Type"), contentTypeEPUB) {
		writeError(w, http.StatusBadRequest, "only epub files can be imported")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		serverError(w, r, err)
		return
	}
	info, err := service.ReadEPUB(bytes.NewReader(data), int64(len(data)))
	if errors.Is(err, service.ErrNotEPUB) {
		writeError(w, http.StatusBadRequest, "file is not a valid epub")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}

	empty := ""
	book := &models.Book{
		UserID:       user.ID,
		Title:        firstOf(info.Title, titleFromFilename(header.Filename), "Untitled"),
		Status:       models.StatusWantToRead,
		NoteMarkdown: &empty,
	}
	if guess := titleFromFilename(header.Filename); guess != "" {
		book.TitleGuess = &guess
	}
	if info.Author != "" {
		book.Author = &info.Author
	}
	book.Title = clampRunes(book.Title, 200)
	book.CreatedAt = h.Now.now()
	book.UpdatedAt = book.CreatedAt
	if err := h.DB.InsertBook(r.Context(), book); err != nil {
		serverError(w, r, err)
		return
	}

	// The metadata lookup and the cover upload are independent.
	var (
		meta     *service.BookMetadata
		coverKey string
		g        errgroup.Group
	)
	if info.ISBN != "" && h.Metadata != nil {
		g.Go(func() error {
			m, err := h.Metadata.LookupISBN(r.Context(), info.ISBN)
			if err != nil {
				if !errors.Is(err, service.ErrNoMatch) {
					hlog.FromRequest(r).Warn().Err(err).Str("isbn", info.ISBN).Msg("import metadata lookup")
				}
				return nil
			}
			meta = m
			return nil
		})
	}
	// The stored type comes from the bytes, not from what the package claims.
	coverType := http.DetectContentType(info.Cover)
	if coverExt, ok := coverTypes[coverType]; ok && len(info.Cover) > 0 && h.Covers != nil {
		g.Go(func() error {
			key := service.CoverKey(user.ID, book.ID, coverExt)
			if err := h.Covers.Upload(r.Context(), key, bytes.NewReader(info.Cover), coverType); err != nil {
				return fmt.Errorf("upload embedded cover: %w", err)
			}
			coverKey = key
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.rollback(r, book.ID)
		serverError(w, r, err)
		return
	}

	if meta != nil {
		if meta.Title != "" {
			book.Title = clampRunes(meta.Title, 200)
		}
		if meta.Author != "" {
			book.Author = &meta.Author
		}
		if meta.CoverImageURL != "" {
			book.CoverImageURL = &meta.CoverImageURL
		}
	}
	if coverKey != "" {
		url := fmt.Sprintf("/api/books/%d/cover", book.ID)
		book.CoverKey = coverKey
		book.CoverImageURL = &url
	}
	if meta != nil || coverKey != "" {
		if err := h.DB.UpdateBook(r.Context(), book); err != nil {
			h.rollback(r, book.ID)
			removeCover(r, h.Covers, coverKey)
			serverError(w, r, err)
			return
		}
	}

	hlog.FromRequest(r).Info().
		Int64("book_id", book.ID).
		Str("isbn", info.ISBN).
		Bool("metadata", meta != nil).
		Bool("cover", coverKey != "").
		Msg("epub imported")
	writeJSON(w, http.StatusCreated, ImportOut{Book: *book, ISBN: info.ISBN, MetadataFound: meta != nil})
}

func (h *ImportHandler) rollback(r *http.Request, bookID int64) {
	if err := h.DB.DeleteBook(r.Context(), bookID); err != nil {
		hlog.FromRequest(r).Error().Err(err).Int64("book_id", bookID).Msg("roll back import")
	}
}

// titleFromFilename turns "frank_herbert-dune.epub" into "frank herbert dune".
func titleFromFilename(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
	return clampRunes(strings.Join(strings.Fields(name), " "), 200)
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func clampRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
