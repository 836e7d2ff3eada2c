package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

var errorStatusMap = map[error]int{
	ErrEmptyAuthorizationHeader:         http.StatusUnauthorized,
	ErrInvalidToken:                     http.StatusUnauthorized,
	ErrEmptyPeerID:                      http.StatusUnauthorized,
	utils.ErrInvalidAuthorizationHeader: http.StatusUnauthorized,
	ErrInvalidJSON:                      http.StatusBadRequest,
	ErrIDMismatch:                       http.StatusBadRequest,
	ErrMissingRevision:                  http.StatusBadRequest,
	ErrInvalidRequest:                   http.StatusBadRequest,
	models.ErrMalformedDocument:         http.StatusBadRequest,

	store.ErrNotFound:        http.StatusNotFound,
	store.ErrConflict:        http.StatusConflict,
	store.ErrInvalidDocument: http.StatusBadRequest,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
