package forum

import (
	"net/http"
	"strings"
)

// Credentials are supplied by the caller for each request. The client never
// keeps them between calls.
type Credentials struct {
	Token  string
	Cookie string
}

// Empty reports whether neither a token nor a cookie is present.
func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Token) == "" && strings.TrimSpace(c.Cookie) == ""
}

// Headers returns a copy of base with the credential headers merged in.
func (c Credentials) Headers(base http.Header) http.Header {
	h := base.Clone()
	if h == nil {
		h = http.Header{}
	}
	if t := strings.TrimSpace(c.Token); t != "" {
		h.Set("Authorization", "Bearer "+t)
	}
	if ck := strings.TrimSpace(c.Cookie); ck != "" {
		h.Set("Cookie", ck)
	}
	return h
}

// CredentialsFromRequest extracts the bearer token and raw cookie header of an
// incoming request so they can be forwarded upstream.
func CredentialsFromRequest(r *http.Request) Credentials {
	var c Credentials
	if auth := r.Header.Get("Authorization"); auth != "" {
		if t, ok := strings.CutPrefix(auth, "Bearer "); ok {
			c.Token = strings.TrimSpace(t)
		}
	}
	c.Cookie = r.Header.Get("Cookie")
	return c
}
