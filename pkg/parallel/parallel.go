// Package parallel coordinates clause and unit-literal sharing between
// the solvers of a portfolio. The coordinator owns the broadcast pool,
// the unit exchange log and the clone lifecycle; every sharing
// operation runs inside one coordinator-wide critical region and is
// shielded by a per-solver reentrancy guard.
package parallel

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"

	"github.com/someplaceguy/parsat/pkg/limit"
	"github.com/someplaceguy/parsat/pkg/metrics"
	"github.com/someplaceguy/parsat/pkg/pool"
)

// Phase names a solver's decision-phase policy.
type Phase string

const (
	// PhaseCaching keeps the last assigned polarity per variable.
	PhaseCaching Phase = "caching"
	// PhaseRandom picks polarities at random, widening the
	// portfolio's search coverage.
	PhaseRandom Phase = "random"
)

// Config is the per-solver search configuration the coordinator
// controls when it builds clones. Values are fixed before clone
// construction; the master's own configuration is never touched.
type Config struct {
	Seed  int64
	Phase Phase
}

// Solver is the surface the coordinator needs from a solving engine.
// Implementations live outside this package; the engine package
// provides a gini-backed one.
type Solver interface {
	// Config reports the solver's effective search configuration.
	Config() Config
	// Clone returns an independent copy of the solver's state,
	// reconfigured by cfg and bound to lim for cancellation.
	Clone(cfg Config, lim *limit.Limit) Solver
	// Learn inserts a shared clause into the solver's local state.
	// The slice is reused by the caller and must not be retained.
	Learn(lits []z.Lit)
}

// Clause is the read surface of a learned clause considered for
// sharing.
type Clause interface {
	Lits() []z.Lit
	Glue() int
}

type participant struct {
	solver Solver
	lim    *limit.Limit
	// syncing is the reentrancy guard. It is read and written only
	// by the participant's own goroutine, before the coordinator
	// lock is taken.
	syncing bool
}

// Coordinator drives sharing for one portfolio. Create with New, then
// InitSolvers before any sharing call.
type Coordinator struct {
	mu    sync.Mutex
	pool  pool.VectorPool
	units *pool.UnitLog

	root     *limit.Limit
	parts    []participant
	capacity int

	scratch []z.Lit
	words   []uint32
	log     *logrus.Entry
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithCapacity sets the broadcast pool's capacity in words. Undersizing
// only increases overwrite loss.
func WithCapacity(words int) Option {
	return func(c *Coordinator) error {
		if words < 3 {
			return fmt.Errorf("pool capacity %d cannot hold any record", words)
		}
		c.capacity = words
		return nil
	}
}

// WithLogger routes the coordinator's share/retrieve trace to logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Coordinator) error {
		c.log = logger.WithField("component", "parallel")
		return nil
	}
}

// WithLimit makes lim the root of the portfolio's cancellation tree
// instead of a fresh one.
func WithLimit(lim *limit.Limit) Option {
	return func(c *Coordinator) error {
		c.root = lim
		return nil
	}
}

const defaultCapacity = 1 << 12

// New returns a Coordinator with no solvers attached yet.
func New(opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		units:    pool.NewUnitLog(),
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.root == nil {
		c.root = limit.New()
	}
	if c.log == nil {
		c.log = logrus.StandardLogger().WithField("component", "parallel")
	}
	return c, nil
}

// InitSolvers builds extra clones of master and registers the master
// itself as participant extra, for extra+1 participants in total. Each
// clone gets a distinct seed drawn from the master's; one clone in the
// middle of the pack runs with a randomized phase policy; every clone's
// limit is a child of the coordinator's root, so cancelling the root
// stops them all.
func (c *Coordinator) InitSolvers(master Solver, extra int) {
	if extra < 0 {
		panic(fmt.Sprintf("parallel: cannot build %d clones", extra))
	}
	base := master.Config()
	rng := rand.New(rand.NewSource(base.Seed))
	c.parts = make([]participant, extra+1)
	for i := 0; i < extra; i++ {
		cfg := base
		cfg.Seed = rng.Int63()
		if i == 1+extra/2 {
			cfg.Phase = PhaseRandom
		}
		lim := c.root.Child()
		c.parts[i] = participant{solver: master.Clone(cfg, lim), lim: lim}
		c.log.WithFields(logrus.Fields{
			"clone": i,
			"seed":  cfg.Seed,
			"phase": cfg.Phase,
		}).Debug("initialized clone")
	}
	c.parts[extra] = participant{solver: master, lim: c.root}
	c.pool.Reserve(extra+1, c.capacity)
}

// Count reports the number of participants, master included.
func (c *Coordinator) Count() int {
	return len(c.parts)
}

// Solver returns participant id's solver.
func (c *Coordinator) Solver(id int) Solver {
	return c.part(id).solver
}

// Limit returns participant id's cancellation node.
func (c *Coordinator) Limit(id int) *limit.Limit {
	return c.part(id).lim
}

// Cancel stops every participant by cancelling the root limit.
func (c *Coordinator) Cancel() {
	c.root.Cancel()
}

func (c *Coordinator) part(id int) *participant {
	if id < 0 || id >= len(c.parts) {
		panic(fmt.Sprintf("parallel: solver id %d out of range [0,%d)", id, len(c.parts)))
	}
	return &c.parts[id]
}

// enter takes participant id's reentrancy guard. A false result means
// the participant is already inside a sharing call and the new call
// must be a no-op.
func (c *Coordinator) enter(id int) (*participant, bool) {
	p := c.part(id)
	if p.syncing {
		return nil, false
	}
	p.syncing = true
	return p, true
}

// Exchange records the caller's newly learned unit literals and
// returns every unit other participants recorded since the caller's
// watermark. The same literal may be returned to a caller more than
// once across calls; solver-level assignment is idempotent, so callers
// tolerate that.
func (c *Coordinator) Exchange(id int, in []z.Lit, watermark *int) []z.Lit {
	p, ok := c.enter(id)
	if !ok {
		return nil
	}
	defer func() { p.syncing = false }()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.words = c.words[:0]
	for _, m := range in {
		c.words = append(c.words, uint32(m))
	}
	before := c.units.Len()
	drained := c.units.RecordAndDrain(c.words, watermark)
	metrics.ExchangedUnits.Add(float64(c.units.Len() - before))

	var out []z.Lit
	for _, w := range drained {
		out = append(out, z.Lit(w))
	}
	if len(out) > 0 || len(in) > 0 {
		c.log.WithFields(logrus.Fields{
			"solver": id,
			"sent":   len(in),
			"recv":   len(out),
		}).Debug("exchanged units")
	}
	return out
}

// ShareBinary broadcasts a binary clause. Binary clauses are cheap and
// high-value, so they bypass the sharing heuristic entirely.
func (c *Coordinator) ShareBinary(id int, l1, l2 z.Lit) {
	p, ok := c.enter(id)
	if !ok {
		return
	}
	defer func() { p.syncing = false }()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"solver": id, "lits": []z.Lit{l1, l2}}).Debug("share binary")
	c.pool.BeginAddVector(id, 2)
	c.pool.AddVectorElem(uint32(l1))
	c.pool.AddVectorElem(uint32(l2))
	c.pool.EndAddVector()
	metrics.SharedClauses.Inc()
}

// ShareClause broadcasts a learned clause if the sharing heuristic
// accepts it; otherwise it does nothing.
func (c *Coordinator) ShareClause(id int, cl Clause) {
	lits := cl.Lits()
	if !ShouldShare(len(lits), cl.Glue()) {
		metrics.RejectedClauses.Inc()
		return
	}
	p, ok := c.enter(id)
	if !ok {
		return
	}
	defer func() { p.syncing = false }()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"solver": id, "size": len(lits), "glue": cl.Glue()}).Debug("share clause")
	c.pool.BeginAddVector(id, len(lits))
	for _, m := range lits {
		c.pool.AddVectorElem(uint32(m))
	}
	c.pool.EndAddVector()
	metrics.SharedClauses.Inc()
}

// GetClauses drains every foreign record still available to the caller
// and hands each one to the caller's solver as a learned clause. The
// reentrancy guard turns any sharing call made from inside Learn into
// a no-op.
func (c *Coordinator) GetClauses(id int) {
	p, ok := c.enter(id)
	if !ok {
		return
	}
	defer func() { p.syncing = false }()

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		v, ok := c.pool.GetVector(id)
		if !ok {
			return
		}
		c.scratch = c.scratch[:0]
		for _, w := range v {
			c.scratch = append(c.scratch, z.Lit(w))
		}
		metrics.RetrievedClauses.Inc()
		c.log.WithFields(logrus.Fields{"solver": id, "size": len(c.scratch)}).Debug("retrieved clause")
		p.solver.Learn(c.scratch)
	}
}
