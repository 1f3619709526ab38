package graph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/finsight-agent/server/internal/agent/model"
	logx "github.com/finsight-agent/server/pkg/logger"
)

// Start and End are the reserved entry and terminal markers of a workflow.
const (
	Start = "start"
	End   = "end"
)

// NodeFunc is a processing stage: it reads the current state and returns a
// partial update. Nodes must not mutate the state directly; the engine
// merges the returned delta. A non-nil error aborts the turn as a
// WorkflowError — stages convert ordinary failures into AgentError deltas
// instead.
type NodeFunc func(ctx context.Context, state *model.AgentState) (model.Delta, error)

// RouteFunc evaluates the merged state and returns one or more next node
// names. Returning multiple names fans out: all targets run against the
// same pre-fan-out state snapshot. Routing functions must be pure and total.
type RouteFunc func(state *model.AgentState) []string

// WorkflowError is an engine-level routing or invariant violation. It
// indicates a defect in graph construction or a node contract breach, not a
// normal user-facing error path.
type WorkflowError struct {
	Node string
	Err  error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow error at node %q: %v", e.Node, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// ProgressEvent is emitted once per node invocation, in execution order.
// It is a diagnostic side channel, never required for correctness.
type ProgressEvent struct {
	Node  string
	Keys  []string
	Delta model.Delta
}

type branch struct {
	route   RouteFunc
	targets map[string]bool
}

// Graph accumulates nodes and edges before compilation.
type Graph struct {
	nodes    map[string]NodeFunc
	edges    map[string]string
	branches map[string]branch
	entry    string
	err      error
}

// NewGraph creates an empty workflow graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]NodeFunc),
		edges:    make(map[string]string),
		branches: make(map[string]branch),
	}
}

// AddNode registers a named node. Duplicate or reserved names are recorded
// as construction errors surfaced by Compile.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	if name == Start || name == End {
		g.fail(fmt.Errorf("node name %q is reserved", name))
		return g
	}
	if _, exists := g.nodes[name]; exists {
		g.fail(fmt.Errorf("duplicate node %q", name))
		return g
	}
	if fn == nil {
		g.fail(fmt.Errorf("node %q has nil func", name))
		return g
	}
	g.nodes[name] = fn
	return g
}

// AddEdge adds an unconditional edge. An edge from Start designates the
// entry node.
func (g *Graph) AddEdge(from, to string) *Graph {
	if from == Start {
		if g.entry != "" {
			g.fail(fmt.Errorf("entry node already set to %q", g.entry))
			return g
		}
		g.entry = to
		return g
	}
	if _, exists := g.edges[from]; exists {
		g.fail(fmt.Errorf("node %q already has a static edge", from))
		return g
	}
	g.edges[from] = to
	return g
}

// AddBranch adds a conditional edge from a node. The routing function may
// only return names present in targets (or End when listed).
func (g *Graph) AddBranch(from string, route RouteFunc, targets map[string]bool) *Graph {
	if _, exists := g.branches[from]; exists {
		g.fail(fmt.Errorf("node %q already has a branch", from))
		return g
	}
	if route == nil || len(targets) == 0 {
		g.fail(fmt.Errorf("branch from %q needs a route and targets", from))
		return g
	}
	g.branches[from] = branch{route: route, targets: targets}
	return g
}

func (g *Graph) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

// Compile validates the graph and returns an executable workflow.
func (g *Graph) Compile() (*Workflow, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.entry == "" {
		return nil, fmt.Errorf("no entry edge from %s", Start)
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("entry node %q is not registered", g.entry)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge from unknown node %q", from)
		}
		if to != End {
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("edge from %q to unknown node %q", from, to)
			}
		}
		if _, dual := g.branches[from]; dual {
			return nil, fmt.Errorf("node %q has both a static edge and a branch", from)
		}
	}
	for from, br := range g.branches {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("branch from unknown node %q", from)
		}
		for target := range br.targets {
			if target != End {
				if _, ok := g.nodes[target]; !ok {
					return nil, fmt.Errorf("branch from %q targets unknown node %q", from, target)
				}
			}
		}
	}
	for name := range g.nodes {
		_, hasEdge := g.edges[name]
		_, hasBranch := g.branches[name]
		if !hasEdge && !hasBranch {
			return nil, fmt.Errorf("node %q has no outgoing edge or branch", name)
		}
	}
	return &Workflow{graph: g}, nil
}

// Workflow is a compiled, executable graph.
type Workflow struct {
	graph *Graph
}

// InvokeOption configures a single Invoke call.
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	progress func(ProgressEvent)
}

// WithProgress registers a callback receiving one event per node
// invocation, in order. The callback runs on the invoking goroutine.
func WithProgress(fn func(ProgressEvent)) InvokeOption {
	return func(o *invokeOptions) { o.progress = fn }
}

// Invoke drives the workflow over the shared state until the End marker is
// reached from every active branch. Node deltas are merged into the state
// before the next routing decision; fanned-out nodes run concurrently
// against the same pre-fan-out snapshot and join before merging. The engine
// does not bound iteration count — loop termination is the responsibility
// of nodes and routing functions.
func (w *Workflow) Invoke(ctx context.Context, state *model.AgentState, opts ...InvokeOption) error {
	var o invokeOptions
	for _, opt := range opts {
		opt(&o)
	}

	frontier := []string{w.graph.entry}
	for {
		// Cancellation is honored between node invocations so the state is
		// never left half-merged for the next turn.
		if err := ctx.Err(); err != nil {
			return err
		}

		active := frontier[:0:0]
		for _, name := range frontier {
			if name != End {
				active = append(active, name)
			}
		}
		if len(active) == 0 {
			return nil
		}

		deltas, err := w.runNodes(ctx, active, state)
		if err != nil {
			return err
		}

		// Merge in declaration order; later fan-out writes win on conflict,
		// though conflicting writes indicate a graph construction mistake.
		written := make(map[string]string)
		for i, name := range active {
			for _, key := range deltas[i].Keys() {
				if prev, clash := written[key]; clash {
					logx.Warn().
						Str("key", key).
						Str("first_node", prev).
						Str("second_node", name).
						Msg("fan-out nodes wrote the same state key")
				}
				written[key] = name
			}
			state.Apply(deltas[i])
			if o.progress != nil {
				o.progress(ProgressEvent{Node: name, Keys: deltas[i].Keys(), Delta: deltas[i]})
			}
		}

		next, err := w.route(active, state)
		if err != nil {
			return err
		}
		frontier = next
	}
}

func (w *Workflow) runNodes(ctx context.Context, active []string, state *model.AgentState) ([]model.Delta, error) {
	deltas := make([]model.Delta, len(active))

	if len(active) == 1 {
		name := active[0]
		delta, err := w.graph.nodes[name](ctx, state)
		if err != nil {
			return nil, &WorkflowError{Node: name, Err: err}
		}
		deltas[0] = delta
		return deltas, nil
	}

	// Fan-out: all nodes read the same pre-fan-out snapshot; the group wait
	// is the join barrier before any delta is merged.
	eg, egCtx := errgroup.WithContext(ctx)
	for i, name := range active {
		eg.Go(func() error {
			delta, err := w.graph.nodes[name](egCtx, state)
			if err != nil {
				return &WorkflowError{Node: name, Err: err}
			}
			deltas[i] = delta
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return deltas, nil
}

func (w *Workflow) route(active []string, state *model.AgentState) ([]string, error) {
	var next []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			next = append(next, name)
		}
	}

	for _, name := range active {
		if to, ok := w.graph.edges[name]; ok {
			add(to)
			continue
		}
		br, ok := w.graph.branches[name]
		if !ok {
			return nil, &WorkflowError{Node: name, Err: fmt.Errorf("no outgoing edge or branch")}
		}
		targets := br.route(state)
		if len(targets) == 0 {
			return nil, &WorkflowError{Node: name, Err: fmt.Errorf("routing function resolved to no target")}
		}
		for _, target := range targets {
			if !br.targets[target] {
				return nil, &WorkflowError{Node: name, Err: fmt.Errorf("routing function returned undeclared target %q", target)}
			}
			add(target)
		}
	}
	return next, nil
}
