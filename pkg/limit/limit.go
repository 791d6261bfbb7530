// Package limit implements the cooperative-cancellation tree shared by
// a portfolio of solvers. Every solver polls its own node; cancelling
// a node cancels its whole subtree, so cancelling the root stops the
// entire portfolio.
package limit

import "context"

// Limit is one node of the cancellation tree. Child nodes derive
// their context from the parent's, so parent cancellation propagates
// without any bookkeeping here.
type Limit struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a root node.
func New() *Limit {
	return FromContext(context.Background())
}

// FromContext returns a root node that is additionally cancelled when
// ctx is.
func FromContext(ctx context.Context) *Limit {
	child, cancel := context.WithCancel(ctx)
	return &Limit{ctx: child, cancel: cancel}
}

// Child returns a new node subordinate to l.
func (l *Limit) Child() *Limit {
	return FromContext(l.ctx)
}

// Cancel stops l and every node beneath it. Cancelling twice is
// harmless.
func (l *Limit) Cancel() {
	l.cancel()
}

// Cancelled polls whether l or any ancestor has been cancelled.
func (l *Limit) Cancelled() bool {
	return l.ctx.Err() != nil
}

// Done exposes the underlying completion channel for select loops.
func (l *Limit) Done() <-chan struct{} {
	return l.ctx.Done()
}
