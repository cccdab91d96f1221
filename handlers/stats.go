package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/bookmemory/store"
)

type StatsHandler struct {
	DB  store.Store
	Now Clock
}

// Overview counts the user's books by status and the books started and
// finished in the current calendar month (UTC).
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	st, err := h.DB.BookStats(r.Context(), user.ID, h.Now.now())
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
