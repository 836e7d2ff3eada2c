package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/go-resty/resty/v2"
)

var statusErrors = map[int]error{
	http.StatusBadRequest:   store.ErrInvalidDocument,
	http.StatusUnauthorized: ErrUnauthorized,
	http.StatusNotFound:     store.ErrNotFound,
	http.StatusConflict:     store.ErrConflict,
}

// bulkErrors are matched by prefix against BulkResult.Error, which the
// server fills with the wrapped store error.
var bulkErrors = []error{
	store.ErrConflict,
	store.ErrNotFound,
	store.ErrInvalidDocument,
}

func mapHTTPError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	message := errorMessage(resp)
	if target, ok := statusErrors[resp.StatusCode()]; ok {
		return fmt.Errorf("%w: %s", target, message)
	}
	return fmt.Errorf("%w: http %d: %s", ErrUnexpectedResponse, resp.StatusCode(), message)
}

// errorMessage extracts the error of a [utils.ErrorBody], falling back to
// the raw body and then to the status text.
func errorMessage(resp *resty.Response) string {
	body := strings.TrimSpace(string(resp.Body()))

	var errBody utils.ErrorBody
	if err := json.Unmarshal(resp.Body(), &errBody); err == nil && errBody.Error != "" {
		return errBody.Error
	}
	if body == "" {
		return http.StatusText(resp.StatusCode())
	}
	return body
}

// withBulkErrors restores the Err of failed results decoded from the wire.
func withBulkErrors(results []models.BulkResult) []models.BulkResult {
	for i, r := range results {
		if r.Error == "" {
			continue
		}
		results[i].Err = bulkError(r.Error)
	}
	return results
}

func bulkError(message string) error {
	for _, target := range bulkErrors {
		if strings.HasPrefix(message, target.Error()) {
			rest := strings.TrimPrefix(strings.TrimPrefix(message, target.Error()), ": ")
			if rest == "" {
				return target
			}
			return fmt.Errorf("%w: %s", target, rest)
		}
	}
	return errors.New(message)
}
