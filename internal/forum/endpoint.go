package forum

import "strings"

const (
	// PublicPrefix is the route prefix of the forum API.
	PublicPrefix = "/api/v1"
	// LegacyPrefix is the prefix the wrapped Answer service mounts routes under.
	LegacyPrefix = "/answer/api/v1"
)

// DefaultProbeBases are the local addresses tried in development probing mode.
var DefaultProbeBases = []string{
	"http://localhost:9080",
	"http://127.0.0.1:9080",
}

// Candidate is one concrete endpoint to attempt for a logical call.
type Candidate struct {
	BaseURL string
	Path    string
}

func (c Candidate) URL() string {
	return c.BaseURL + c.Path
}

// Resolver expands a logical path into the ordered endpoints worth trying.
type Resolver struct {
	BaseURL    string
	Probe      bool
	ProbeBases []string
}

// NewResolver builds a resolver. Probing is forced off in production.
func NewResolver(baseURL string, production, probe bool, probeBases []string) Resolver {
	r := Resolver{BaseURL: trimBase(baseURL)}
	if !production && probe {
		r.Probe = true
		if len(probeBases) == 0 {
			probeBases = DefaultProbeBases
		}
		for _, b := range probeBases {
			if b = trimBase(b); b != "" {
				r.ProbeBases = append(r.ProbeBases, b)
			}
		}
	}
	return r
}

func trimBase(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

// Candidates returns a deduplicated, order-preserving endpoint list. The
// configured base with the given path always comes first. Without prefix
// fallback (every write) the list has exactly that one entry, so a mutation is
// never sent to two different logical routes.
func (r Resolver) Candidates(path string, allowPrefixFallback bool) []Candidate {
	primary := Candidate{BaseURL: r.BaseURL, Path: path}
	if !allowPrefixFallback {
		return []Candidate{primary}
	}

	bases := []string{r.BaseURL}
	if r.Probe {
		bases = append(bases, r.ProbeBases...)
	}
	paths := []string{path}
	if sibling, ok := siblingPath(path); ok {
		paths = append(paths, sibling)
	}

	seen := map[string]struct{}{}
	out := make([]Candidate, 0, len(bases)*len(paths))
	for _, b := range bases {
		for _, p := range paths {
			c := Candidate{BaseURL: b, Path: p}
			if _, ok := seen[c.URL()]; ok {
				continue
			}
			seen[c.URL()] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// siblingPath swaps the public and legacy route prefixes.
func siblingPath(path string) (string, bool) {
	if rest, ok := cutPrefix(path, LegacyPrefix); ok {
		return PublicPrefix + rest, true
	}
	if rest, ok := cutPrefix(path, PublicPrefix); ok {
		return LegacyPrefix + rest, true
	}
	return "", false
}

func cutPrefix(path, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok {
		return "", false
	}
	if rest != "" && rest[0] != '/' && rest[0] != '?' {
		return "", false
	}
	return rest, true
}
