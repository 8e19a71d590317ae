package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token verification errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenVerifier resolves a bearer token to a subject ID. The account store
// behind authentication lives elsewhere; this service only covers the token
// leg of the contract.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenService issues and verifies HMAC-signed subject tokens with an
// expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a signed token for the subject, valid for the configured
// TTL.
func (s *TokenService) Issue(subjectID string) (string, error) {
	if subjectID == "" || strings.Contains(subjectID, "|") {
		return "", fmt.Errorf("invalid subject id: %q", subjectID)
	}

	expiry := s.now().Add(s.ttl).Unix()
	payload := subjectID + "|" + strconv.FormatInt(expiry, 10)
	sig := s.sign(payload)

	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + sig, nil
}

// Verify checks the signature and expiry and returns the subject ID.
func (s *TokenService) Verify(token string) (string, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrInvalidToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidToken
	}
	payload := string(payloadBytes)

	if !hmac.Equal([]byte(s.sign(payload)), []byte(sig)) {
		return "", ErrInvalidToken
	}

	subjectID, expiryStr, ok := strings.Cut(payload, "|")
	if !ok || subjectID == "" {
		return "", ErrInvalidToken
	}

	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if s.now().Unix() > expiry {
		return "", ErrTokenExpired
	}

	return subjectID, nil
}

func (s *TokenService) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
