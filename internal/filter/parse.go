package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	celeval "streamer/pkg/cel"
)

const (
	PolicyIncludeAny = "include_any"
	PolicyIncludeAll = "include_all"
	PolicyExcludeAny = "exclude_any"
	PolicyExcludeAll = "exclude_all"
)

var (
	ErrExpressionsDisabled = errors.New("filter expressions are not enabled")
	ErrNullFilter          = errors.New("filter must be a JSON object")
)

// Spec is the JSON form of a client filter.
type Spec struct {
	Name        string          `json:"name"`
	MatchPolicy string          `json:"match_policy"`
	Clauses     []Clause        `json:"clauses"`
	Actions     map[string]bool `json:"actions"`
	Facets      *FacetSpec      `json:"facets,omitempty"`
	Expression  string          `json:"expression,omitempty"`
}

type FacetSpec struct {
	URI   []string `json:"uri"`
	Group []string `json:"group"`
	User  []string `json:"user"`
}

// Parser builds filters from client messages. evaluator may be nil, in
// which case specs carrying an expression are rejected.
type Parser struct {
	evaluator *celeval.Evaluator
}

func NewParser(evaluator *celeval.Evaluator) *Parser {
	return &Parser{evaluator: evaluator}
}

func (p *Parser) Parse(raw json.RawMessage) (Filter, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, ErrNullFilter
	}

	var spec Spec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return p.Build(spec)
}

// Build ANDs together the clause set, the facets and the expression present
// in spec. A spec with none of them accepts everything.
func (p *Parser) Build(spec Spec) (Filter, error) {
	var parts []Filter

	clauses, err := buildClauses(spec.MatchPolicy, spec.Clauses)
	if err != nil {
		return nil, err
	}
	if len(spec.Clauses) > 0 {
		parts = append(parts, clauses)
	}

	if spec.Facets != nil && (len(spec.Facets.URI) > 0 || len(spec.Facets.Group) > 0 || len(spec.Facets.User) > 0) {
		parts = append(parts, NewFacet(spec.Facets.URI, spec.Facets.Group, spec.Facets.User))
	}

	if spec.Expression != "" {
		if p.evaluator == nil {
			return nil, ErrExpressionsDisabled
		}
		expr, err := NewExpression(p.evaluator, spec.Expression)
		if err != nil {
			return nil, err
		}
		parts = append(parts, expr)
	}

	var f Filter
	switch len(parts) {
	case 0:
		f = MatchAll{}
	case 1:
		f = parts[0]
	default:
		f = And(parts...)
	}

	if len(spec.Actions) > 0 {
		f = ActionGate{Actions: spec.Actions, Filter: f}
	}
	return f, nil
}

func buildClauses(policy string, clauses []Clause) (Filter, error) {
	matchers := make([]Filter, 0, len(clauses))
	for i, c := range clauses {
		fm, err := NewFieldMatch(c)
		if err != nil {
			return nil, fmt.Errorf("clause %d: %w", i, err)
		}
		matchers = append(matchers, fm)
	}

	switch policy {
	case PolicyIncludeAny, "":
		return Or(matchers...), nil
	case PolicyIncludeAll:
		return And(matchers...), nil
	case PolicyExcludeAny:
		return Not{Filter: Or(matchers...)}, nil
	case PolicyExcludeAll:
		return Not{Filter: And(matchers...)}, nil
	default:
		return nil, fmt.Errorf("unknown match_policy: %q", policy)
	}
}
