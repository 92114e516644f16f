package query

import "sync/atomic"

// Generation hands out increasing request numbers. A result is current only
// if nothing was dispatched after it.
type Generation struct {
	n atomic.Uint64
}

func (g *Generation) Next() uint64 { return g.n.Add(1) }

func (g *Generation) Current() uint64 { return g.n.Load() }

func (g *Generation) IsCurrent(n uint64) bool { return g.n.Load() == n }
