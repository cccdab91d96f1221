package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookmemory/store"
)

type UsersHandler struct {
	DB  store.Store
	Now Clock
}

// Me returns the authenticated user's public profile.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userOut(user))
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	u, err := h.DB.UserByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userOut(u))
}

func (h *UsersHandler) Follow(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if targetID == user.ID {
		writeError(w, http.StatusBadRequest, "Cannot follow yourself")
		return
	}
	if _, err := h.DB.UserByID(r.Context(), targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		serverError(w, r, err)
		return
	}
	created, err := h.DB.Follow(r.Context(), user.ID, targetID, h.Now.now())
	if err != nil {
		serverError(w, r, err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, messageBody{Message: "Already following"})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "followed"})
}

func (h *UsersHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	removed, err := h.DB.Unfollow(r.Context(), user.ID, targetID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusOK, messageBody{Message: "not following"})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "unfollowed"})
}

func (h *UsersHandler) Following(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	follows, err := h.DB.Following(r.Context(), user.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, followsOut(follows))
}

func (h *UsersHandler) Followers(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	follows, err := h.DB.Followers(r.Context(), user.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, followsOut(follows))
}
