// Package filter implements the predicates a client installs on its
// connection to select which annotation events it receives.
package filter

import (
	"encoding/json"

	"streamer/pkg/models"
)

// Filter decides whether a serialized annotation, for a given event action,
// is of interest to a connection.
type Filter interface {
	Match(doc models.Document, action string) bool
}

// jsonMatcher is implemented by filters that evaluate against the JSON
// encoding of a document, so composites encode it once for all children.
type jsonMatcher interface {
	matchJSON(data []byte, action string) bool
}

func matchWithJSON(f Filter, doc models.Document, data []byte, action string) bool {
	if jm, ok := f.(jsonMatcher); ok && data != nil {
		return jm.matchJSON(data, action)
	}
	return f.Match(doc, action)
}

func encode(doc models.Document) []byte {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	return data
}

// MatchAll accepts every document.
type MatchAll struct{}

func (MatchAll) Match(models.Document, string) bool { return true }

// ActionGate restricts an inner filter to the enabled event actions.
// Actions absent from the map are enabled.
type ActionGate struct {
	Actions map[string]bool
	Filter  Filter
}

func (g ActionGate) Match(doc models.Document, action string) bool {
	if enabled, ok := g.Actions[action]; ok && !enabled {
		return false
	}
	return g.Filter.Match(doc, action)
}
