package filter

import "streamer/pkg/models"

type Op int

const (
	OpAnd Op = iota
	OpOr
)

// Composite combines filters with AND or OR. An empty AND matches, an
// empty OR does not.
type Composite struct {
	Op      Op
	Filters []Filter
}

func And(filters ...Filter) Composite { return Composite{Op: OpAnd, Filters: filters} }

func Or(filters ...Filter) Composite { return Composite{Op: OpOr, Filters: filters} }

func (c Composite) Match(doc models.Document, action string) bool {
	var data []byte
	for _, f := range c.Filters {
		if _, ok := f.(jsonMatcher); ok {
			data = encode(doc)
			break
		}
	}
	return c.match(doc, data, action)
}

func (c Composite) match(doc models.Document, data []byte, action string) bool {
	for _, f := range c.Filters {
		matched := matchWithJSON(f, doc, data, action)
		if c.Op == OpOr && matched {
			return true
		}
		if c.Op == OpAnd && !matched {
			return false
		}
	}
	return c.Op == OpAnd
}

type Not struct {
	Filter Filter
}

func (n Not) Match(doc models.Document, action string) bool {
	return !n.Filter.Match(doc, action)
}
