package engines

import (
	"context"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/models"
)

// DefaultHiddenUnits is the width of each hidden dense layer, the same as
// the sine model's.
const DefaultHiddenUnits = 16

// GraphEngine evaluates a dense network built as a gorgonia expression
// graph. The weights are random; the engine measures the cost of a forward
// pass with the model's input and output sizes, not its accuracy.
type GraphEngine struct {
	spec   models.Spec
	g      *G.ExprGraph
	x      *G.Node
	out    *G.Node
	vm     G.VM
	last   []float32
	params int
}

// NewGraphEngine builds x(1,in) -> relu(x·w1) -> relu(h·w2) -> h·w3 (1,out).
//
// Arguments:
//   - spec: The model whose input and output sizes shape the network.
//   - hidden: Units per hidden layer. Zero or less uses DefaultHiddenUnits.
//
// Returns:
//   - *GraphEngine: The engine, ready for SetInput and Invoke.
//   - error: ErrQuantizationUnsupported for int8 models, or a graph error.
func NewGraphEngine(spec models.Spec, hidden int) (*GraphEngine, error) {
	if spec.Quantization != models.QuantFloat32 {
		return nil, errors.Wrapf(inference.ErrQuantizationUnsupported, "graph engine cannot run %s", spec.Name)
	}
	if hidden <= 0 {
		hidden = DefaultHiddenUnits
	}
	in, outN := spec.InputSize(), spec.OutputSize()

	g := G.NewGraph()
	x := G.NewMatrix(g, tensor.Float32, G.WithShape(1, in), G.WithName("x"), G.WithInit(G.Zeroes()))
	w1 := G.NewMatrix(g, tensor.Float32, G.WithShape(in, hidden), G.WithName("w1"), G.WithInit(G.GlorotN(1.0)))
	w2 := G.NewMatrix(g, tensor.Float32, G.WithShape(hidden, hidden), G.WithName("w2"), G.WithInit(G.GlorotN(1.0)))
	w3 := G.NewMatrix(g, tensor.Float32, G.WithShape(hidden, outN), G.WithName("w3"), G.WithInit(G.GlorotN(1.0)))

	h1, err := dense(x, w1, true)
	if err != nil {
		return nil, err
	}
	h2, err := dense(h1, w2, true)
	if err != nil {
		return nil, err
	}
	out, err := dense(h2, w3, false)
	if err != nil {
		return nil, err
	}

	return &GraphEngine{
		spec:   spec,
		g:      g,
		x:      x,
		out:    out,
		vm:     G.NewTapeMachine(g),
		params: in*hidden + hidden*hidden + hidden*outN,
	}, nil
}

func dense(x, w *G.Node, relu bool) (*G.Node, error) {
	h, err := G.Mul(x, w)
	if err != nil {
		return nil, errors.Wrapf(err, "multiply %s", w.Name())
	}
	if !relu {
		return h, nil
	}
	h, err = G.Rectify(h)
	return h, errors.Wrapf(err, "rectify %s", w.Name())
}

// SetInput copies the synthesized input into the graph's input node.
func (e *GraphEngine) SetInput(input *tensor.Dense) error {
	values, err := inference.Values(input)
	if err != nil {
		return err
	}
	in := e.spec.InputSize()
	if len(values) != in {
		return errors.Errorf("input has %d values, graph expects %d", len(values), in)
	}
	backing := append([]float32(nil), values...)
	return G.Let(e.x, tensor.New(tensor.WithShape(1, in), tensor.WithBacking(backing)))
}

// Invoke runs one forward pass and keeps its output.
func (e *GraphEngine) Invoke(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer e.vm.Reset()
	if err := e.vm.RunAll(); err != nil {
		return errors.Wrap(inference.ErrInvokeFailed, err.Error())
	}

	d, ok := e.out.Value().(*tensor.Dense)
	if !ok {
		return errors.Wrapf(inference.ErrInvokeFailed, "unexpected output value %T", e.out.Value())
	}
	values, err := inference.Values(d)
	if err != nil {
		return errors.Wrap(inference.ErrInvokeFailed, err.Error())
	}
	e.last = append(e.last[:0], values...)
	return nil
}

// Output returns the values of the last forward pass.
func (e *GraphEngine) Output() []float32 {
	return e.last
}

// ArenaBytes returns the bytes held by weights, input and output.
func (e *GraphEngine) ArenaBytes() uint64 {
	return uint64(4 * (e.params + e.spec.InputSize() + e.spec.OutputSize()))
}

// Spec returns the model the graph is shaped for.
func (e *GraphEngine) Spec() models.Spec { return e.spec }

// Close releases the tape machine.
func (e *GraphEngine) Close() error {
	return e.vm.Close()
}
