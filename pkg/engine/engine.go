// Package engine adapts the gini SAT solver to the portfolio layer and
// provides the runner that races a master solver against its clones.
package engine

import (
	"io"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	"github.com/someplaceguy/parsat/pkg/limit"
	"github.com/someplaceguy/parsat/pkg/parallel"
)

// Solve statuses, following the DIMACS convention gini uses.
const (
	Unknown = 0
	Sat     = 1
	Unsat   = -1
)

// Engine wraps one gini solver instance behind the parallel.Solver
// surface. Gini owns its decision heuristics internally, so the phase
// policy in the configuration steers the portfolio runner's
// diversification rather than gini's branching directly.
type Engine struct {
	g   *gini.Gini
	cfg parallel.Config
	lim *limit.Limit
}

// New wraps g. The limit is the engine's cancellation node; the drive
// loop polls it between solve windows.
func New(g *gini.Gini, cfg parallel.Config, lim *limit.Limit) *Engine {
	return &Engine{g: g, cfg: cfg, lim: lim}
}

// FromDimacs loads a CNF formula in DIMACS format.
func FromDimacs(r io.Reader, cfg parallel.Config, lim *limit.Limit) (*Engine, error) {
	g, err := gini.NewDimacs(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading dimacs input")
	}
	return New(g, cfg, lim), nil
}

// Config implements parallel.Solver.
func (e *Engine) Config() parallel.Config {
	return e.cfg
}

// Clone implements parallel.Solver by copying the full gini state.
func (e *Engine) Clone(cfg parallel.Config, lim *limit.Limit) parallel.Solver {
	return &Engine{g: e.g.Copy(), cfg: cfg, lim: lim}
}

// Learn implements parallel.Solver. The engine must be idle; the drive
// loop only drains shared clauses between solve windows.
func (e *Engine) Learn(lits []z.Lit) {
	for _, m := range lits {
		e.g.Add(m)
	}
	e.g.Add(z.LitNull)
}

// Limit returns the engine's cancellation node.
func (e *Engine) Limit() *limit.Limit {
	return e.lim
}

// Model returns the satisfying assignment as DIMACS-coded integers,
// one per variable. Only meaningful after a satisfiable solve.
func (e *Engine) Model() []int {
	max := int(e.g.MaxVar())
	model := make([]int, 0, max)
	for v := 1; v <= max; v++ {
		if e.g.Value(z.Dimacs2Lit(v)) {
			model = append(model, v)
		} else {
			model = append(model, -v)
		}
	}
	return model
}
