package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/go-resty/resty/v2"
)

// HTTPStore is a [store.DocumentStore] backed by a remote store server.
//
// Every request carries the adapter's credentials: the bearer token when one
// is configured and the peer ID header otherwise. A peer ID found in the
// request context takes precedence over the configured one.
type HTTPStore struct {
	client *utils.HTTPClient
	peerID string

	logger *logger.Logger
}

// NewHTTPStore constructs an [HTTPStore] for the server at cfg.HTTPAddress.
//
// Returns [ErrInvalidAddress] if the address is empty or cannot be parsed.
func NewHTTPStore(cfg config.Adapter, peerID string, logger *logger.Logger) (*HTTPStore, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	client := utils.NewHTTPClient(baseURL, cfg.RequestTimeout)
	if token := strings.TrimSpace(cfg.Token); token != "" {
		client.SetAuthToken(token)
	}
	if peerID != "" {
		client.SetHeader(utils.PeerIDHeader, peerID)
	}

	return &HTTPStore{client: client, peerID: peerID, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the normalized server URL.
func (h *HTTPStore) BaseURL() string {
	return h.client.BaseURL
}

// AllDocs implements [store.DocumentStore] via GET /api/docs.
func (h *HTTPStore) AllDocs(ctx context.Context) ([]models.Document, error) {
	resp, err := h.request(ctx).Get("/api/docs")
	if err != nil {
		return nil, fmt.Errorf("error fetching documents: %w", err)
	}

	var docs []models.Document
	if err = decodeResponse(resp, &docs); err != nil {
		return nil, fmt.Errorf("error fetching documents: %w", err)
	}
	return docs, nil
}

// Get implements [store.DocumentStore] via GET /api/docs/{id}.
func (h *HTTPStore) Get(ctx context.Context, id string) (models.Document, error) {
	resp, err := h.request(ctx).
		SetPathParam("id", id).
		Get("/api/docs/{id}")
	if err != nil {
		return models.Document{}, fmt.Errorf("error getting document %s: %w", id, err)
	}

	var doc models.Document
	if err = decodeResponse(resp, &doc); err != nil {
		return models.Document{}, fmt.Errorf("error getting document %s: %w", id, err)
	}
	return doc, nil
}

// BulkGet implements [store.DocumentStore] via POST /api/bulk_get.
func (h *HTTPStore) BulkGet(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return []models.Document{}, nil
	}

	resp, err := h.request(ctx).
		SetBody(models.BulkGetRequest{IDs: ids}).
		Post("/api/bulk_get")
	if err != nil {
		return nil, fmt.Errorf("error getting documents: %w", err)
	}

	var docs []models.Document
	if err = decodeResponse(resp, &docs); err != nil {
		return nil, fmt.Errorf("error getting documents: %w", err)
	}
	return docs, nil
}

// Put implements [store.DocumentStore] via PUT /api/docs/{id}.
// A document without an identity is rejected locally.
func (h *HTTPStore) Put(ctx context.Context, doc models.Document) (string, error) {
	if doc.ID == "" {
		return "", fmt.Errorf("%w: empty id", store.ErrInvalidDocument)
	}

	resp, err := h.request(ctx).
		SetPathParam("id", doc.ID).
		SetBody(doc).
		Put("/api/docs/{id}")
	if err != nil {
		return "", fmt.Errorf("error putting document %s: %w", doc.ID, err)
	}

	var result models.BulkResult
	if err = decodeResponse(resp, &result); err != nil {
		return "", fmt.Errorf("error putting document %s: %w", doc.ID, err)
	}
	return result.Rev, nil
}

// BulkDocs implements [store.DocumentStore] via POST /api/bulk_docs.
func (h *HTTPStore) BulkDocs(ctx context.Context, docs []models.Document) ([]models.BulkResult, error) {
	if len(docs) == 0 {
		return []models.BulkResult{}, nil
	}

	resp, err := h.request(ctx).
		SetBody(models.BulkDocsRequest{Docs: docs}).
		Post("/api/bulk_docs")
	if err != nil {
		return nil, fmt.Errorf("error writing documents: %w", err)
	}

	var results []models.BulkResult
	if err = decodeResponse(resp, &results); err != nil {
		return nil, fmt.Errorf("error writing documents: %w", err)
	}
	return withBulkErrors(results), nil
}

// Remove implements [store.DocumentStore] via DELETE /api/docs/{id}?rev=.
func (h *HTTPStore) Remove(ctx context.Context, ref models.DocRef) (string, error) {
	resp, err := h.request(ctx).
		SetPathParam("id", ref.ID).
		SetQueryParam("rev", ref.Rev).
		Delete("/api/docs/{id}")
	if err != nil {
		return "", fmt.Errorf("error removing document %s: %w", ref.ID, err)
	}

	var result models.BulkResult
	if err = decodeResponse(resp, &result); err != nil {
		return "", fmt.Errorf("error removing document %s: %w", ref.ID, err)
	}
	return result.Rev, nil
}

// BulkRemove implements [store.DocumentStore] via POST /api/bulk_remove.
func (h *HTTPStore) BulkRemove(ctx context.Context, refs []models.DocRef) ([]models.BulkResult, error) {
	if len(refs) == 0 {
		return []models.BulkResult{}, nil
	}

	resp, err := h.request(ctx).
		SetBody(models.BulkRemoveRequest{Refs: refs}).
		Post("/api/bulk_remove")
	if err != nil {
		return nil, fmt.Errorf("error removing documents: %w", err)
	}

	var results []models.BulkResult
	if err = decodeResponse(resp, &results); err != nil {
		return nil, fmt.Errorf("error removing documents: %w", err)
	}
	return withBulkErrors(results), nil
}

func (h *HTTPStore) request(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if peerID, ok := utils.GetPeerIDFromContext(ctx); ok && peerID != h.peerID {
		req.SetHeader(utils.PeerIDHeader, peerID)
	}
	return req
}

func decodeResponse(resp *resty.Response, out any) error {
	if err := mapHTTPError(resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return nil
}
