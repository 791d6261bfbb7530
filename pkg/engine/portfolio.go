package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/someplaceguy/parsat/pkg/parallel"
)

const defaultWindow = 500 * time.Millisecond

// Portfolio races a master engine against diversified clones of
// itself. Each participant solves in bounded windows; between windows
// it drains shared clauses and units from the coordinator and injects
// them into its own solver. The first definitive answer cancels
// everyone else through the master's limit tree.
type Portfolio struct {
	coord   *parallel.Coordinator
	engines []*Engine
	window  time.Duration
	log     *logrus.Entry
}

// PortfolioOption configures a Portfolio.
type PortfolioOption func(*Portfolio) error

// WithWindow bounds the solve slice between synchronization points.
// Cancellation latency is at most one window.
func WithWindow(d time.Duration) PortfolioOption {
	return func(p *Portfolio) error {
		if d <= 0 {
			return errors.Errorf("solve window %v must be positive", d)
		}
		p.window = d
		return nil
	}
}

// WithPortfolioLogger routes runner logging to logger.
func WithPortfolioLogger(logger *logrus.Logger) PortfolioOption {
	return func(p *Portfolio) error {
		p.log = logger.WithField("component", "portfolio")
		return nil
	}
}

// NewPortfolio builds a coordinator rooted at the master's limit and
// populates it with extra clones of master.
func NewPortfolio(master *Engine, extra int, opts ...PortfolioOption) (*Portfolio, error) {
	p := &Portfolio{window: defaultWindow}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.log == nil {
		p.log = logrus.StandardLogger().WithField("component", "portfolio")
	}

	coord, err := parallel.New(parallel.WithLimit(master.lim))
	if err != nil {
		return nil, err
	}
	coord.InitSolvers(master, extra)

	p.coord = coord
	p.engines = make([]*Engine, coord.Count())
	for i := range p.engines {
		p.engines[i] = coord.Solver(i).(*Engine)
	}
	return p, nil
}

// Coordinator exposes the sharing surface for embedders that drive
// their own search loops.
func (p *Portfolio) Coordinator() *parallel.Coordinator {
	return p.coord
}

// Outcome is the result of a portfolio run.
type Outcome struct {
	// Status is Sat, Unsat or Unknown.
	Status int
	// Winner is the participant id that produced the answer.
	Winner int
	// Model holds a DIMACS-coded satisfying assignment when Status
	// is Sat.
	Model []int
}

type report struct {
	id     int
	status int
}

// Solve races every participant until one of them reaches an answer,
// the context expires, or the master's limit is cancelled. An Unknown
// status with a nil error means the run was cancelled before any
// participant finished.
func (p *Portfolio) Solve(ctx context.Context) (Outcome, error) {
	if len(p.engines) == 0 {
		return Outcome{}, errors.New("portfolio has no solvers")
	}

	reports := make(chan report, len(p.engines))
	var grp errgroup.Group
	for id := range p.engines {
		id := id
		e := p.engines[id]
		grp.Go(func() error {
			status := p.drive(ctx, id, e)
			if status != Unknown {
				reports <- report{id: id, status: status}
				// First answer wins; stop the rest of the
				// portfolio.
				p.coord.Cancel()
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return Outcome{}, err
	}
	close(reports)

	r, ok := <-reports
	if !ok {
		return Outcome{Status: Unknown}, ctx.Err()
	}
	out := Outcome{Status: r.status, Winner: r.id}
	if r.status == Sat {
		out.Model = p.engines[r.id].Model()
	}
	p.log.WithFields(logrus.Fields{"winner": r.id, "status": r.status}).Debug("portfolio finished")
	return out, nil
}

// drive runs one participant's solve loop: a bounded solve window,
// then a synchronization point that drains shared clauses and units
// into the idle solver. The window length jitters per participant so
// synchronization points spread out.
func (p *Portfolio) drive(ctx context.Context, id int, e *Engine) int {
	rng := rand.New(rand.NewSource(e.cfg.Seed + int64(id)))
	watermark := 0
	for {
		if e.lim.Cancelled() || ctx.Err() != nil {
			return Unknown
		}

		ctl := e.g.GoSolve()
		status := ctl.Try(p.window + p.jitter(rng))
		if status == Unknown {
			status = ctl.Stop()
		}
		if status != Unknown {
			return status
		}

		p.coord.GetClauses(id)
		for _, m := range p.coord.Exchange(id, nil, &watermark) {
			e.g.Add(m)
			e.g.Add(z.LitNull)
		}
	}
}

func (p *Portfolio) jitter(rng *rand.Rand) time.Duration {
	span := int64(p.window) / 4
	if span <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(span))
}
