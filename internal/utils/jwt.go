package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidTokenParams is returned by GeneratePeerToken for incomplete input.
var ErrInvalidTokenParams = errors.New("invalid params for generating JWT Token")

// ErrInvalidAuthorizationHeader is returned by ParseBearerToken.
var ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

// GeneratePeerToken creates a signed HMAC-SHA256 JWT identifying a peer.
//
// The token includes the following standard claims:
//   - Issuer    (iss): identifies the store server that accepts the token
//   - Subject   (sub): the peer ID
//   - IssuedAt  (iat): the current time
//   - ExpiresAt (exp): the current time plus tokenDuration
//
// All parameters are required.
//
// Example usage:
//
//	token, err := utils.GeneratePeerToken("doc-sync", "laptop", time.Hour, "secret")
func GeneratePeerToken(issuer, peerID string, tokenDuration time.Duration, signKey string) (models.Token, error) {
	if issuer == "" || peerID == "" || tokenDuration == 0 || signKey == "" {
		return models.Token{}, ErrInvalidTokenParams
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   peerID,
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(signKey))
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred during singing JWT token: %w", err)
	}

	return models.Token{
		Token:            token,
		RegisteredClaims: claims,
		SignedString:     tokenString,
		PeerID:           peerID,
	}, nil
}

// ValidatePeerToken verifies the signature, issuer and expiration of
// tokenString and extracts the peer ID from its subject.
//
// Example usage:
//
//	token, err := utils.ValidatePeerToken(raw, "secret", "doc-sync")
//	if err != nil {
//	    // reject the request
//	}
func ValidatePeerToken(tokenString, tokenSignKey, tokenIssuer string) (models.Token, error) {
	claims := &models.Token{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Token{}, fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	peerID, err := claims.GetPeerID()
	if err != nil {
		return models.Token{}, err
	}

	return models.Token{
		Token:            token,
		RegisteredClaims: claims.RegisteredClaims,
		SignedString:     tokenString,
		PeerID:           peerID,
	}, nil
}

// ParseBearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Fields(authorizationHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidAuthorizationHeader
	}
	return parts[1], nil
}
