package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// AuthTokenClaims is the signed payload of a bearer token.
type AuthTokenClaims struct {
	UserID    uint   `json:"sub"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
	TokenID   string `json:"jti"`
	ExpiresAt int64  `json:"exp"`
}

// GenerateAuthToken issues an HMAC-SHA256 signed bearer token for the user.
func GenerateAuthToken(userID uint, username string, isAdmin bool, ttl time.Duration, secret string) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("secret is required for token generation")
	}
	expiry := time.Now().Add(ttl)
	claims := AuthTokenClaims{
		UserID:    userID,
		Username:  username,
		IsAdmin:   isAdmin,
		TokenID:   uuid.NewString(),
		ExpiresAt: expiry.Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	sig := mac.Sum(nil)
	token := fmt.Sprintf("%s.%s", base64.RawURLEncoding.EncodeToString(payload), base64.RawURLEncoding.EncodeToString(sig))
	return token, expiry, nil
}

// VerifyAuthToken checks signature and expiry and returns the claims.
func VerifyAuthToken(token, secret string) (*AuthTokenClaims, error) {
	if secret == "" {
		return nil, errors.New("secret is required for token verification")
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, ErrTokenInvalid
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrTokenInvalid
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrTokenInvalid
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payloadBytes)
	expected := mac.Sum(nil)
	if !hmac.Equal(sigBytes, expected) {
		return nil, ErrTokenInvalid
	}
	var claims AuthTokenClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, ErrTokenInvalid
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}
