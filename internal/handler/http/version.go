package http

import (
	"net/http"

	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	_, _ = utils.WriteJSON(w, models.NewVersionResponse(h.buildInfo), http.StatusOK)
}
