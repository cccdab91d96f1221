package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/store"
	"github.com/rs/zerolog/hlog"
)

type BooksHandler struct {
	DB     store.Store
	Covers CoverStorage // nil when S3 is not configured
	Now    Clock
	// MaxUploadBytes caps cover uploads.
	MaxUploadBytes int64
}

// applyBook copies the book fields present in p onto b.
func applyBook(p *patch, b *models.Book) {
	p.str("title", &b.Title, "notblank,max=200")
	p.status("status", &b.Status)
	p.optStr("author", &b.Author, "")
	p.optStr("amazon_url", &b.AmazonURL, "")
	p.optStr("cover_image_url", &b.CoverImageURL, "")
	p.optStr("note_markdown", &b.NoteMarkdown, "")
	p.date("started_at", &b.StartedAt)
	p.date("finished_at", &b.FinishedAt)
	p.optStr("title_guess", &b.TitleGuess, "")
}

// ownedBook loads the book for the current user, writing 404 if it is
// missing or belongs to someone else.
func ownedBook(w http.ResponseWriter, r *http.Request, db store.Store, userID int64, param string) (*models.Book, bool) {
	id, ok := idParam(w, r, param)
	if !ok {
		return nil, false
	}
	book, err := db.OwnedBook(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Book not found")
		return nil, false
	}
	if err != nil {
		serverError(w, r, err)
		return nil, false
	}
	return book, true
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	status := models.BookStatus(r.URL.Query().Get("status_filter"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "status_filter must be read or want_to_read")
		return
	}
	books, err := h.DB.ListBooks(r.Context(), user.ID, status)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := decodePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	empty := ""
	book := &models.Book{
		UserID:       user.ID,
		Status:       models.StatusWantToRead,
		NoteMarkdown: &empty,
	}
	p.require("title")
	applyBook(p, book)
	if !p.ok(w) {
		return
	}
	book.CreatedAt = h.Now.now()
	book.UpdatedAt = book.CreatedAt
	if err := h.DB.InsertBook(r.Context(), book); err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// Get returns the book with its chapters and note pages.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	book, ok := ownedBook(w, r, h.DB, user.ID, "id")
	if !ok {
		return
	}
	chapters, err := h.DB.ListChapters(r.Context(), book.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	notes, err := h.DB.ListNotePages(r.Context(), book.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BookOut{Book: *book, Chapters: &chapters, Notes: &notes})
}

func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	book, ok := ownedBook(w, r, h.DB, user.ID, "id")
	if !ok {
		return
	}
	p, err := decodePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	applyBook(p, book)
	if !p.ok(w) {
		return
	}
	// A cover URL set by hand replaces the uploaded image.
	var staleCover string
	if p.has("cover_image_url") && book.CoverKey != "" {
		staleCover, book.CoverKey = book.CoverKey, ""
	}
	book.UpdatedAt = h.Now.now()
	if err := h.DB.UpdateBook(r.Context(), book); err != nil {
		serverError(w, r, err)
		return
	}
	h.removeCover(r, staleCover)
	writeJSON(w, http.StatusOK, book)
}

// Delete removes the book, its chapters, note pages and comments, and any
// uploaded cover.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	book, ok := ownedBook(w, r, h.DB, user.ID, "id")
	if !ok {
		return
	}
	if err := h.DB.DeleteBook(r.Context(), book.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Book not found")
			return
		}
		serverError(w, r, err)
		return
	}
	h.removeCover(r, book.CoverKey)
	w.WriteHeader(http.StatusNoContent)
}

func (h *BooksHandler) removeCover(r *http.Request, key string) {
	removeCover(r, h.Covers, key)
}

// removeCover deletes an uploaded object on a best-effort basis. Failures are
// logged so leaked objects can be found later.
func removeCover(r *http.Request, covers CoverStorage, key string) {
	if key == "" || covers == nil {
		return
	}
	if err := covers.Delete(r.Context(), key); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("key", key).Msg("delete cover object")
	}
}
