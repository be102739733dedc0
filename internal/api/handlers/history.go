package handlers

import (
	"net/http"

	"github.com/mediexplain/backend/internal/api/middleware"
	"github.com/mediexplain/backend/internal/db"
	"github.com/mediexplain/backend/internal/translate"
)

type HistoryHandler struct {
	db *db.Database
}

func NewHistoryHandler(database *db.Database) *HistoryHandler {
	return &HistoryHandler{db: database}
}

// ListHistory returns the authenticated user's past conversions, newest
// first. No records is an empty list, not an error.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := h.db.GetUserHistory(claims.Username)
	if err != nil {
		jsonError(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, records, http.StatusOK)
}

// Languages returns the supported translation targets for the UI selector.
func (h *HistoryHandler) Languages(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, translate.SupportedLanguages(), http.StatusOK)
}
