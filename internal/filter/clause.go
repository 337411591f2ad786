package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"streamer/pkg/models"
)

const (
	OperatorEquals  = "equals"
	OperatorMatches = "matches"
	OperatorLT      = "lt"
	OperatorLE      = "le"
	OperatorGT      = "gt"
	OperatorGE      = "ge"
	OperatorOneOf   = "one_of"
	OperatorFirstOf = "first_of"
	OperatorMatchOf = "match_of"
)

// Clause is one field test as sent by clients, e.g.
// {"field": "/uri", "operator": "one_of", "value": ["https://a", "https://b"]}.
type Clause struct {
	Field         string      `json:"field"`
	Operator      string      `json:"operator"`
	Value         interface{} `json:"value"`
	CaseSensitive bool        `json:"case_sensitive"`
}

// FieldMatch tests a single field of the document. When the field holds a
// list, the clause matches if any element does (first_of only looks at the
// first element).
type FieldMatch struct {
	clause  Clause
	path    string
	pattern *regexp.Regexp
	values  []interface{}
}

func NewFieldMatch(c Clause) (*FieldMatch, error) {
	if strings.Trim(c.Field, "/") == "" {
		return nil, fmt.Errorf("clause field is required")
	}

	fm := &FieldMatch{clause: c, path: pointerToPath(c.Field)}

	switch c.Operator {
	case OperatorEquals, OperatorLT, OperatorLE, OperatorGT, OperatorGE, OperatorFirstOf:
		if c.Value == nil {
			return nil, fmt.Errorf("operator %s requires a value", c.Operator)
		}
	case OperatorMatches:
		s, ok := c.Value.(string)
		if !ok {
			return nil, fmt.Errorf("operator matches requires a string pattern")
		}
		if !c.CaseSensitive {
			s = "(?i)" + s
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for field %s: %w", c.Field, err)
		}
		fm.pattern = re
	case OperatorOneOf, OperatorMatchOf:
		values, ok := c.Value.([]interface{})
		if !ok {
			return nil, fmt.Errorf("operator %s requires a list value", c.Operator)
		}
		fm.values = values
	default:
		return nil, fmt.Errorf("unknown operator: %q", c.Operator)
	}

	return fm, nil
}

// pointerToPath converts "/target/0/source" into the gjson path
// "target.0.source".
func pointerToPath(field string) string {
	parts := strings.Split(strings.Trim(field, "/"), "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		parts[i] = escapePathComponent(p)
	}
	return strings.Join(parts, ".")
}

func escapePathComponent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (f *FieldMatch) Match(doc models.Document, action string) bool {
	data := encode(doc)
	if data == nil {
		return false
	}
	return f.matchJSON(data, action)
}

func (f *FieldMatch) matchJSON(data []byte, _ string) bool {
	result := gjson.GetBytes(data, f.path)
	if !result.Exists() {
		return false
	}

	candidates := []gjson.Result{result}
	if result.IsArray() {
		candidates = result.Array()
		if f.clause.Operator == OperatorFirstOf {
			if len(candidates) == 0 {
				return false
			}
			candidates = candidates[:1]
		}
	}

	for _, candidate := range candidates {
		if f.test(candidate) {
			return true
		}
	}
	return false
}

func (f *FieldMatch) test(v gjson.Result) bool {
	switch f.clause.Operator {
	case OperatorEquals, OperatorFirstOf:
		return f.equal(v, f.clause.Value)
	case OperatorMatches:
		return f.pattern.MatchString(v.String())
	case OperatorLT:
		c, ok := f.compare(v, f.clause.Value)
		return ok && c < 0
	case OperatorLE:
		c, ok := f.compare(v, f.clause.Value)
		return ok && c <= 0
	case OperatorGT:
		c, ok := f.compare(v, f.clause.Value)
		return ok && c > 0
	case OperatorGE:
		c, ok := f.compare(v, f.clause.Value)
		return ok && c >= 0
	case OperatorOneOf:
		for _, want := range f.values {
			if f.equal(v, want) {
				return true
			}
		}
	case OperatorMatchOf:
		got := f.fold(v.String())
		for _, want := range f.values {
			if s, ok := want.(string); ok && strings.Contains(got, f.fold(s)) {
				return true
			}
		}
	}
	return false
}

func (f *FieldMatch) equal(v gjson.Result, want interface{}) bool {
	c, ok := f.compare(v, want)
	return ok && c == 0
}

// compare orders a document value against a clause value. Numbers compare
// numerically, everything else as strings.
func (f *FieldMatch) compare(v gjson.Result, want interface{}) (int, bool) {
	switch w := want.(type) {
	case float64:
		if v.Type != gjson.Number {
			return 0, false
		}
		switch {
		case v.Num < w:
			return -1, true
		case v.Num > w:
			return 1, true
		default:
			return 0, true
		}
	case string:
		if v.Type != gjson.String {
			return 0, false
		}
		return strings.Compare(f.fold(v.Str), f.fold(w)), true
	case bool:
		if !v.IsBool() {
			return 0, false
		}
		if v.Bool() == w {
			return 0, true
		}
		return 1, true
	default:
		return 0, false
	}
}

func (f *FieldMatch) fold(s string) string {
	if f.clause.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}
