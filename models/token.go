package models

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyPeerID is returned when a peer token carries no subject.
var ErrEmptyPeerID = errors.New("empty peer id in token")

// Token wraps a peer JWT.
//
// It embeds [jwt.Token] for signing and parsing and [jwt.RegisteredClaims]
// for standard claim access. The "sub" claim is the peer ID that the store
// server uses as the origin of every write made with this token.
type Token struct {
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	// SignedString is the compact JWS form sent in the Authorization header.
	SignedString string `json:"-"`

	// PeerID is a cached copy of the subject claim.
	PeerID string `json:"-"`
}

// GetPeerID extracts the peer identifier from the subject claim.
func (t *Token) GetPeerID() (string, error) {
	peerID, err := t.GetSubject()
	if err != nil {
		return "", fmt.Errorf("error extracting peer id from token: %w", err)
	}
	if peerID == "" {
		return "", ErrEmptyPeerID
	}

	return peerID, nil
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}
