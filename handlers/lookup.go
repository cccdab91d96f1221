package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookmemory/service"
	"github.com/rs/zerolog/hlog"
)

// MetadataLookup finds book suggestions by ISBN.
type MetadataLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*service.BookMetadata, error)
}

type LookupHandler struct {
	Metadata MetadataLookup
}

// Lookup suggests title, author and cover for an ISBN. GET /api/books/lookup?isbn=
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	isbn := service.NormalizeISBN(r.URL.Query().Get("isbn"))
	if isbn == "" {
		writeError(w, http.StatusBadRequest, "isbn is required")
		return
	}
	if h.Metadata == nil {
		writeError(w, http.StatusServiceUnavailable, "metadata lookup not configured")
		return
	}
	meta, err := h.Metadata.LookupISBN(r.Context(), isbn)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, meta)
	case errors.Is(err, service.ErrNoMatch):
		writeError(w, http.StatusNotFound, "No book found for that ISBN")
	case errors.Is(err, service.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "metadata lookup temporarily unavailable")
	default:
		hlog.FromRequest(r).Warn().Err(err).Str("isbn", isbn).Msg("metadata lookup failed")
		writeError(w, http.StatusBadGateway, "metadata lookup failed")
	}
}
