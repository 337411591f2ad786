package filter

import (
	"net/url"
	"strings"

	"streamer/pkg/models"
)

// Facet selects annotations by page URI, group and author. Empty facets
// are unconstrained; a non-empty facet must contain the document's value.
type Facet struct {
	uris   map[string]struct{}
	groups map[string]struct{}
	users  map[string]struct{}
}

func NewFacet(uris, groups, users []string) *Facet {
	f := &Facet{
		uris:   make(map[string]struct{}, len(uris)),
		groups: toSet(groups),
		users:  toSet(users),
	}
	for _, u := range uris {
		f.uris[NormalizeURI(u)] = struct{}{}
	}
	return f
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (f *Facet) Match(doc models.Document, _ string) bool {
	if len(f.groups) > 0 {
		group, _ := doc["group"].(string)
		if _, ok := f.groups[group]; !ok {
			return false
		}
	}

	if len(f.users) > 0 {
		if _, ok := f.users[doc.User()]; !ok {
			return false
		}
	}

	if len(f.uris) > 0 {
		for _, u := range documentURIs(doc) {
			if _, ok := f.uris[NormalizeURI(u)]; ok {
				return true
			}
		}
		return false
	}

	return true
}

// documentURIs returns the document's uri and every target source.
func documentURIs(doc models.Document) []string {
	var uris []string
	if u, ok := doc["uri"].(string); ok && u != "" {
		uris = append(uris, u)
	}

	var targets []map[string]interface{}
	switch t := doc["target"].(type) {
	case []map[string]interface{}:
		targets = t
	case []interface{}:
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok {
				targets = append(targets, m)
			}
		}
	}
	for _, target := range targets {
		if src, ok := target["source"].(string); ok && src != "" {
			uris = append(uris, src)
		}
	}
	return uris
}

// NormalizeURI lowercases scheme and host, drops the fragment and any
// trailing slash so equivalent page URIs compare equal.
func NormalizeURI(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.TrimSpace(raw), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return strings.TrimSuffix(u.String(), "/")
}
