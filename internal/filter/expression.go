package filter

import (
	"context"

	"github.com/google/cel-go/cel"

	celeval "streamer/pkg/cel"
	"streamer/pkg/models"
)

// Expression matches when a CEL program over doc and action returns true.
// Evaluation errors (for example a missing key) count as no match.
type Expression struct {
	source    string
	evaluator *celeval.Evaluator
	program   cel.Program
}

func NewExpression(evaluator *celeval.Evaluator, source string) (*Expression, error) {
	program, err := evaluator.CompileFilter(source)
	if err != nil {
		return nil, err
	}
	return &Expression{source: source, evaluator: evaluator, program: program}, nil
}

func (e *Expression) Match(doc models.Document, action string) bool {
	ok, err := e.evaluator.Evaluate(context.Background(), e.program, doc, action)
	return err == nil && ok
}

func (e *Expression) String() string {
	return e.source
}
