// Package identity derives a stable session key from an inbound request
// without requiring authentication.
//
// Resolution order: an existing session cookie wins verbatim; otherwise the
// key is a deterministic hash of the request's network origin and client
// signature, so repeat visitors without cookies collapse onto the same
// session; with neither available a random key is generated. The derived
// identity is weak (collision-prone and spoofable), an accepted trade for
// anonymous continuity. Callers should set the cookie on the first response
// so the identity upgrades without changing the key.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// CookieName carries the session key between requests.
const CookieName = "lumi_session"

// keyLength bounds the derived key to a short, log-friendly size.
const keyLength = 16

// Resolve returns the session key for a request and whether it came from a
// cookie. It never fails; some key is always returned.
func Resolve(r *http.Request) (key string, fromCookie bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	origin := OriginAddress(r)
	signature := r.UserAgent()
	if origin != "" || signature != "" {
		return derive(origin, signature), false
	}

	return strings.ReplaceAll(uuid.NewString(), "-", "")[:keyLength], false
}

// derive hashes origin and signature into a fixed-length hex key.
func derive(origin, signature string) string {
	sum := sha256.Sum256([]byte(origin + "|" + signature))
	return hex.EncodeToString(sum[:])[:keyLength]
}

// OriginAddress extracts the client address without the ephemeral port, so
// the derived key survives reconnects.
func OriginAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
