package http

import (
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/rs/zerolog"
)

// peerAuth identifies the peer behind a request and stores its ID in the
// request context with [utils.WithPeerID]. The store tags every write with
// that ID, which is how a peer later recognises its own changes on the feed.
//
// With a token sign key configured the peer ID is the subject of a bearer
// JWT. Without one, the X-Peer-ID header is trusted as is.
//
// Requests that cannot be attributed to a peer are rejected with 401.
func (h *Handler) peerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		peerID, err := h.peerFromRequest(r)
		if err != nil {
			log.Err(err).Str("func", "*Handler.peerAuth").Msg("request rejected")
			utils.WriteError(w, err.Error(), http.StatusUnauthorized)
			return
		}

		l := log.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("peer_id", peerID)
		})

		ctx := l.WithContext(utils.WithPeerID(r.Context(), peerID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) peerFromRequest(r *http.Request) (string, error) {
	if h.auth.TokenSignKey == "" {
		peerID := r.Header.Get(utils.PeerIDHeader)
		if peerID == "" {
			return "", ErrEmptyPeerID
		}
		return peerID, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrEmptyAuthorizationHeader
	}

	tokenString, err := utils.ParseBearerToken(authHeader)
	if err != nil {
		return "", err
	}

	token, err := utils.ValidatePeerToken(tokenString, h.auth.TokenSignKey, h.auth.TokenIssuer)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return token.PeerID, nil
}
