// SPDX-License-Identifier: MIT

// Package auth verifies viewer identity tokens and the admin API token.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/viewgate/viewgate/internal/entitle"
)

// ErrInvalidToken is returned for tokens that are malformed, forged or
// expired. Callers treat it as "anonymous viewer", never as a hard fail.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated viewer state carried inside a token.
type Identity struct {
	ViewerID           string                     `json:"viewer_id"`
	Subscription       entitle.SubscriptionStatus `json:"subscription"`
	PlanID             string                     `json:"plan_id,omitempty"`
	SubscriptionExpiry time.Time                  `json:"subscription_expiry"`
	Admin              bool                       `json:"admin,omitempty"`

	// TokenExpiry bounds the token itself, independent of the
	// subscription expiry.
	TokenExpiry time.Time `json:"token_expiry"`
}

// Codec mints and verifies HMAC-SHA256 signed viewer tokens.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec. An empty secret disables verification: every
// token is rejected and all viewers stay anonymous.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Mint signs an identity into a token of the form base64(payload).base64(mac).
func (c *Codec) Mint(id Identity) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + c.sign(body), nil
}

// Verify checks the signature and token expiry and returns the identity.
func (c *Codec) Verify(token string, now time.Time) (Identity, error) {
	if len(c.secret) == 0 || token == "" {
		return Identity{}, ErrInvalidToken
	}

	body, mac, ok := strings.Cut(token, ".")
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(c.sign(body)), []byte(mac)) != 1 {
		return Identity{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return Identity{}, ErrInvalidToken
	}
	if !id.TokenExpiry.IsZero() && now.After(id.TokenExpiry) {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

func (c *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Viewer builds the entitlement viewer context for this identity.
func (id Identity) Viewer(platform entitle.Platform) entitle.Viewer {
	return entitle.Viewer{
		Platform:           platform,
		Admin:              id.Admin,
		Authenticated:      true,
		Subscription:       id.Subscription,
		PlanID:             id.PlanID,
		SubscriptionExpiry: id.SubscriptionExpiry,
	}
}

// ExtractToken retrieves the bearer token from the request, if any.
func ExtractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

// AuthorizeAdminToken compares the presented admin token with the
// configured one in constant time. An empty configured token refuses all.
func AuthorizeAdminToken(presented, configured string) bool {
	if configured == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
