package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) allDocs(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.AllDocs(r.Context())
	if err != nil {
		h.fail(w, r, "*Handler.allDocs", err)
		return
	}

	_, _ = utils.WriteJSON(w, nonNil(docs), http.StatusOK)
}

func (h *Handler) getDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "*Handler.getDoc", err)
		return
	}

	_, _ = utils.WriteJSON(w, doc, http.StatusOK)
}

func (h *Handler) putDoc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var doc models.Document
	if err := decode(r, &doc); err != nil {
		h.fail(w, r, "*Handler.putDoc", err)
		return
	}
	if doc.ID == "" {
		doc.ID = id
	}
	if doc.ID != id {
		h.fail(w, r, "*Handler.putDoc", fmt.Errorf("%w: %q != %q", ErrIDMismatch, doc.ID, id))
		return
	}
	if err := h.validate(r, doc); err != nil {
		h.fail(w, r, "*Handler.putDoc", err)
		return
	}

	rev, err := h.store.Put(r.Context(), doc)
	if err != nil {
		h.fail(w, r, "*Handler.putDoc", err)
		return
	}

	_, _ = utils.WriteJSON(w, models.BulkResult{ID: id, Rev: rev}, http.StatusCreated)
}

func (h *Handler) removeDoc(w http.ResponseWriter, r *http.Request) {
	ref := models.DocRef{ID: chi.URLParam(r, "id"), Rev: r.URL.Query().Get("rev")}
	if ref.Rev == "" {
		h.fail(w, r, "*Handler.removeDoc", ErrMissingRevision)
		return
	}
	if err := h.validate(r, ref); err != nil {
		h.fail(w, r, "*Handler.removeDoc", err)
		return
	}

	rev, err := h.store.Remove(r.Context(), ref)
	if err != nil {
		h.fail(w, r, "*Handler.removeDoc", err)
		return
	}

	_, _ = utils.WriteJSON(w, models.BulkResult{ID: ref.ID, Rev: rev}, http.StatusOK)
}

func (h *Handler) bulkDocs(w http.ResponseWriter, r *http.Request) {
	var req models.BulkDocsRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "*Handler.bulkDocs", err)
		return
	}
	if err := h.validate(r, req); err != nil {
		h.fail(w, r, "*Handler.bulkDocs", err)
		return
	}

	results, err := h.store.BulkDocs(r.Context(), req.Docs)
	if err != nil {
		h.fail(w, r, "*Handler.bulkDocs", err)
		return
	}

	_, _ = utils.WriteJSON(w, nonNil(results), http.StatusOK)
}

func (h *Handler) bulkGet(w http.ResponseWriter, r *http.Request) {
	var req models.BulkGetRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "*Handler.bulkGet", err)
		return
	}
	if err := h.validate(r, req); err != nil {
		h.fail(w, r, "*Handler.bulkGet", err)
		return
	}

	docs, err := h.store.BulkGet(r.Context(), req.IDs)
	if err != nil {
		h.fail(w, r, "*Handler.bulkGet", err)
		return
	}

	_, _ = utils.WriteJSON(w, nonNil(docs), http.StatusOK)
}

func (h *Handler) bulkRemove(w http.ResponseWriter, r *http.Request) {
	var req models.BulkRemoveRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, "*Handler.bulkRemove", err)
		return
	}
	if err := h.validate(r, req); err != nil {
		h.fail(w, r, "*Handler.bulkRemove", err)
		return
	}

	results, err := h.store.BulkRemove(r.Context(), req.Refs)
	if err != nil {
		h.fail(w, r, "*Handler.bulkRemove", err)
		return
	}

	_, _ = utils.WriteJSON(w, nonNil(results), http.StatusOK)
}

// fail logs err and writes it with the status mapped by statusFromError.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, funcName string, err error) {
	log := logger.FromRequest(r)
	status := statusFromError(err)

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("func", funcName).Int("status", status).Msg("request failed")

	utils.WriteError(w, err.Error(), status)
}

func (h *Handler) validate(r *http.Request, v any) error {
	if err := h.validator.Validate(r.Context(), v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return nil
}

// nonNil keeps empty results encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
