package handler

import (
	"net/http"

	"commutesurvey/internal/service"

	"github.com/gorilla/mux"
)

// InfoHandler serves campaign descriptions
type InfoHandler struct {
	records *service.RecordStore
}

func NewInfoHandler(records *service.RecordStore) *InfoHandler {
	return &InfoHandler{records: records}
}

// Get handles GET /v1/info/{tokenOrSlug}
func (h *InfoHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.records.Info(r.Context(), mux.Vars(r)["tokenOrSlug"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
