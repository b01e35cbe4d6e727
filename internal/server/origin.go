// Package server enforces the upgrade-time origin policy. Browsers attach an
// Origin header to WebSocket handshakes; only origins named in the active
// configuration (or a "*" wildcard entry) may open an event stream.
package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"
)

// canonicalOrigin reduces an origin to lowercase scheme://host form so that
// configured entries and request headers compare equal regardless of letter
// case or trailing path noise.
func canonicalOrigin(raw string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// canonicalOrigins canonicalizes a configured allow-list and reports whether
// it contained a wildcard. Entries that do not parse as origins are logged
// and skipped instead of becoming entries nothing can ever match.
func canonicalOrigins(origins []string) ([]string, bool) {
	var (
		out      []string
		wildcard bool
	)
	for _, raw := range origins {
		switch trimmed := strings.TrimSpace(raw); trimmed {
		case "":
		case "*":
			wildcard = true
		default:
			origin, ok := canonicalOrigin(trimmed)
			if !ok {
				log.Printf("Skipping unparseable origin %q in allowed origins", raw)
				continue
			}
			out = append(out, origin)
		}
	}
	return out, wildcard
}

// originAllowed reports whether a handshake carrying the given Origin header
// may open an event stream. A missing or malformed header is refused;
// non-browser clients must send one that matches the allow-list.
func originAllowed(header string) bool {
	origin, ok := canonicalOrigin(header)
	if header == "" || !ok {
		return false
	}

	configMu.RLock()
	defer configMu.RUnlock()

	if allowAllOrigins {
		return true
	}
	_, ok = allowedOrigins[origin]
	return ok
}

// checkOrigin is the upgrader's origin callback.
func checkOrigin(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if originAllowed(header) {
		return true
	}
	log.Printf("Refused upgrade from origin %q", header)
	return false
}
