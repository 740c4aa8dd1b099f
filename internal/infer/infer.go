// Package infer runs a graph on one adapted input set.
package infer

import (
	"fmt"

	"github.com/born-ml/mlip/internal/calcerr"
	"github.com/born-ml/mlip/internal/graph"
)

const op = "infer"

// Executor invokes a graph synchronously, one structure per call.
//
// Inputs are host tensors built fresh for each call and results are host
// tensors owned by the caller, so no runtime state outlives a call.
type Executor struct {
	graph    graph.Graph
	declared map[string]bool // nil when the graph does not describe itself
}

// New returns an Executor for g.
func New(g graph.Graph) *Executor {
	e := &Executor{graph: g}
	if d, ok := g.(graph.Describer); ok {
		if names := d.InputNames(); len(names) > 0 {
			e.declared = make(map[string]bool, len(names))
			for _, n := range names {
				e.declared[n] = true
			}
		}
	}
	return e
}

// Run evaluates the graph on inputs. Inputs the graph does not declare are
// dropped; a declared input that was not produced, a failure inside the
// graph (including a runtime panic) and malformed outputs are all
// InferenceErrors.
func (e *Executor) Run(inputs graph.TensorSet) (out graph.TensorSet, err error) {
	feed := inputs
	if e.declared != nil {
		feed = make(graph.TensorSet, len(e.declared))
		for name := range e.declared {
			t, ok := inputs[name]
			if !ok {
				return nil, calcerr.New(calcerr.KindInference, op, "graph input %q is not produced for this model type", name)
			}
			feed[name] = t
		}
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = calcerr.Wrap(calcerr.KindInference, op, fmt.Errorf("graph panicked: %v", r))
		}
	}()

	out, err = e.graph.Evaluate(feed)
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindInference, op, err)
	}
	if err := out.Validate(); err != nil {
		return nil, calcerr.Wrap(calcerr.KindInference, op, err)
	}
	return out, nil
}
