package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/store"
)

type CommentsHandler struct {
	DB  store.Store
	Now Clock
}

type ContentRequest struct {
	Content string `json:"content" validate:"notblank,max=10000"`
}

// commentableBook loads the book and checks the requester owns it: 404 when
// the book does not exist, 403 when it belongs to someone else.
func (h *CommentsHandler) commentableBook(w http.ResponseWriter, r *http.Request, userID int64) (*models.Book, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return nil, false
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Book not found")
		return nil, false
	}
	if err != nil {
		serverError(w, r, err)
		return nil, false
	}
	if book.UserID != userID {
		writeError(w, http.StatusForbidden, "Not authorized")
		return nil, false
	}
	return book, true
}

func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	book, ok := h.commentableBook(w, r, user.ID)
	if !ok {
		return
	}
	comments, err := h.DB.ListComments(r.Context(), book.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	out := make([]CommentOut, 0, len(comments))
	for i := range comments {
		out = append(out, commentOut(&comments[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	book, ok := h.commentableBook(w, r, user.ID)
	if !ok {
		return
	}
	var req ContentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fields := validateStruct(req); fields != nil {
		writeValidation(w, fields)
		return
	}
	c := &models.Comment{
		BookID:    book.ID,
		UserID:    user.ID,
		Content:   req.Content,
		CreatedAt: h.Now.now(),
		Author:    user,
	}
	if err := h.DB.InsertComment(r.Context(), c); err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentOut(c))
}

// Delete removes a comment; only its author may do so.
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.DB.CommentByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	if c.UserID != user.ID {
		writeError(w, http.StatusForbidden, "Not authorized")
		return
	}
	if err := h.DB.DeleteComment(r.Context(), c.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
