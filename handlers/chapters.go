package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/store"
)

type ChaptersHandler struct {
	DB  store.Store
	Now Clock
}

func applyChapter(p *patch, c *models.Chapter) {
	p.str("title", &c.Title, "notblank,max=200")
	p.integer("order", &c.Order)
	p.optStr("note_markdown", &c.NoteMarkdown, "")
}

func (h *ChaptersHandler) List(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, chapters)
}

func (h *ChaptersHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	c := &models.Chapter{BookID: book.ID, NoteMarkdown: &empty}
	p.require("title")
	applyChapter(p, c)
	if !p.ok(w) {
		return
	}
	c.CreatedAt = h.Now.now()
	c.UpdatedAt = c.CreatedAt
	if err := h.DB.InsertChapter(r.Context(), c); err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ChaptersHandler) owned(w http.ResponseWriter, r *http.Request, userID int64) (*models.Chapter, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return nil, false
	}
	c, err := h.DB.OwnedChapter(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Chapter not found")
		return nil, false
	}
	if err != nil {
		serverError(w, r, err)
		return nil, false
	}
	return c, true
}

func (h *ChaptersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	c, ok := h.owned(w, r, user.ID)
	if !ok {
		return
	}
	p, err := decodePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	applyChapter(p, c)
	if !p.ok(w) {
		return
	}
	c.UpdatedAt = h.Now.now()
	if err := h.DB.UpdateChapter(r.Context(), c); err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChaptersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	c, ok := h.owned(w, r, user.ID)
	if !ok {
		return
	}
	if err := h.DB.DeleteChapter(r.Context(), c.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
