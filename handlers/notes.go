package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/store"
)

type NotesHandler struct {
	DB  store.Store
	Now Clock
}

// Content is stored as the client sends it; it is HTML from a rich text editor.
func applyNotePage(p *patch, n *models.NotePage) {
	p.str("title", &n.Title, "notblank,max=200")
	p.integer("sort_order", &n.SortOrder)
	p.optStr("content", &n.Content, "")
}

func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	book, ok := ownedBook(w, r, h.DB, user.ID, "id")
	if !ok {
		return
	}
	pages, err := h.DB.ListNotePages(r.Context(), book.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	empty := ""
	n := &models.NotePage{BookID: book.ID, Content: &empty}
	p.require("title")
	applyNotePage(p, n)
	if !p.ok(w) {
		return
	}
	n.CreatedAt = h.Now.now()
	n.UpdatedAt = n.CreatedAt
	if err := h.DB.InsertNotePage(r.Context(), n); err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *NotesHandler) owned(w http.ResponseWriter, r *http.Request, userID int64) (*models.NotePage, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return nil, false
	}
	n, err := h.DB.OwnedNotePage(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return nil, false
	}
	if err != nil {
		serverError(w, r, err)
		return nil, false
	}
	return n, true
}

func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, ok := h.owned(w, r, user.ID)
	if !ok {
		return
	}
	p, err := decodePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	applyNotePage(p, n)
	if !p.ok(w) {
		return
	}
	n.UpdatedAt = h.Now.now()
	if err := h.DB.UpdateNotePage(r.Context(), n); err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, ok := h.owned(w, r, user.ID)
	if !ok {
		return
	}
	if err := h.DB.DeleteNotePage(r.Context(), n.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
