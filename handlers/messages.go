package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/store"
)

type MessagesHandler struct {
	DB  store.Store
	Now Clock
}

// Send posts a direct message to the user in the path. POST /api/messages/{id}
func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	otherID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if otherID == user.ID {
		writeError(w, http.StatusBadRequest, "Cannot send to yourself")
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
	receiver, err := h.DB.UserByID(r.Context(), otherID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	m := &models.Message{
		SenderID:   user.ID,
		ReceiverID: receiver.ID,
		Content:    req.Content,
		CreatedAt:  h.Now.now(),
		Sender:     user,
		Receiver:   receiver,
	}
	if err := h.DB.InsertMessage(r.Context(), m); err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageOut(m))
}

// Conversation lists every message exchanged with the user in the path,
// oldest first.
func (h *MessagesHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	otherID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	msgs, err := h.DB.Conversation(r.Context(), user.ID, otherID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	out := make([]MessageOut, 0, len(msgs))
	for i := range msgs {
		out = append(out, messageOut(&msgs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
