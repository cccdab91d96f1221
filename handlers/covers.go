package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/kevinaaaquil/bookmemory/service"
	"github.com/kevinaaaquil/bookmemory/store"
	"github.com/rs/zerolog/hlog"
)

// CoverStorage is the object store holding uploaded cover images.
type CoverStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// coverTypes maps accepted image types to the extension used in object keys.
var coverTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// formFile reads the multipart "file" part of a request capped at maxBytes,
// writing 413 or 400 itself on failure.
func formFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (multipart.File, *multipart.FileHeader, bool) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit))
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return nil, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return nil, nil, false
	}
	return file, header, true
}

// UploadCover stores a multipart "file" image as the book's cover. PUT /api/books/{id}/cover
func (h *BooksHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if h.Covers == nil {
		writeError(w, http.StatusServiceUnavailable, "cover storage not configured")
		return
	}
	book, ok := ownedBook(w, r, h.DB, user.ID, "id")
	if !ok {
		return
	}

	file, _, ok := formFile(w, r, h.MaxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		serverError(w, r, err)
		return
	}
	contentType := http.DetectContentType(sniff[:n])
	ext, allowed := coverTypes[contentType]
	if !allowed {
		writeError(w, http.StatusBadRequest, "cover must be a jpeg, png, webp or gif image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		serverError(w, r, err)
		return
	}

	key := service.CoverKey(user.ID, book.ID, ext)
	if err := h.Covers.Upload(r.Context(), key, file, contentType); err != nil {
		serverError(w, r, err)
		return
	}
	oldKey := book.CoverKey
	url := fmt.Sprintf("/api/books/%d/cover", book.ID)
	book.CoverKey = key
	book.CoverImageURL = &url
	book.UpdatedAt = h.Now.now()
	if err := h.DB.UpdateBook(r.Context(), book); err != nil {
		h.removeCover(r, key)
		serverError(w, r, err)
		return
	}
	h.removeCover(r, oldKey)
	hlog.FromRequest(r).Info().Int64("book_id", book.ID).Str("key", key).Msg("cover uploaded")
	writeJSON(w, http.StatusOK, book)
}

// Cover streams the uploaded cover. GET /api/books/{id}/cover is public so an
// img src can point at it.
func (h *BooksHandler) Cover(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	if book.CoverKey == "" || h.Covers == nil {
		writeError(w, http.StatusNotFound, "no cover")
		return
	}
	body, contentType, err := h.Covers.GetObject(r.Context(), book.CoverKey)
	if err != nil {
		serverError(w, r, err)
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, body); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("stream cover")
	}
}
