package auth

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the locally decoded view of who the current bearer token
// represents. The payload is decoded without signature verification, so the
// fields are advisory and display-only; they must never back a security
// decision. The service re-validates every authenticated request.
type Identity struct {
	UserID    int64
	Username  string
	ExpiresAt time.Time
}

// DecodeIdentity best-effort decodes the payload segment of a bearer token.
// It returns nil for an empty or malformed token and never returns an error.
func DecodeIdentity(token string) *Identity {
	if token == "" {
		return nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	ident := &Identity{}
	if id, ok := numericClaim(claims["userId"]); ok {
		ident.UserID = id
	}
	if username, ok := claims["username"].(string); ok {
		ident.Username = username
	}
	if exp, ok := numericClaim(claims["exp"]); ok {
		ident.ExpiresAt = time.Unix(exp, 0)
	}
	return ident
}

// numericClaim tolerates the representations a JSON decode can produce for a
// numeric claim.
func numericClaim(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}
