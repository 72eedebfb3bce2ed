// Package book implements the priority-queue and registry data structures
// that back the matching core: per-side price/time priority queues (C2), the
// order registry with lazy deletion (C3), and the stop book (C4).
package book

import (
	"container/heap"

	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/domain"
)

// entry wraps a resting order for heap bookkeeping, adapted from the
// priceTimeQueue/orderEntry pattern used by realmfikri-Limitless's
// engine/queue.go, generalized here to carry a *domain.Order and a
// side-aware comparator instead of a single hard-coded bid/ask flag field.
type entry struct {
	order *domain.Order
	index int
}

// priceTimeQueue is a container/heap.Interface over resting orders on one
// side of the book. isBid selects the comparator direction: bids pop
// highest price first, asks pop lowest price first; ties break by
// ArrivalSeq, oldest first.
type priceTimeQueue struct {
	entries []*entry
	isBid   bool
}

func (q *priceTimeQueue) Len() int { return len(q.entries) }

func (q *priceTimeQueue) Less(i, j int) bool {
	a, b := q.entries[i].order, q.entries[j].order
	if !a.Price.Equal(b.Price) {
		if q.isBid {
			return a.Price.GreaterThan(b.Price)
		}
		return a.Price.LessThan(b.Price)
	}
	return a.ArrivalSeq < b.ArrivalSeq
}

func (q *priceTimeQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	q.entries[i].index = i
	q.entries[j].index = j
}

func (q *priceTimeQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(q.entries)
	q.entries = append(q.entries, e)
}

func (q *priceTimeQueue) Pop() any {
	old := q.entries
	n := len(old)
	e := old[n-1]
	e.index = -1
	q.entries = old[0 : n-1]
	return e
}

// Side is one side (bids or asks) of the priority book. It supports push,
// peek-top, pop-top, and re-insertion of a previously popped order, per
// §4.1. Deletion of an arbitrary interior order is deliberately not
// supported -- the engine relies on lazy deletion against the registry
// instead (§4.2).
type Side struct {
	q priceTimeQueue
}

// NewSide constructs an empty priority queue for one side of the book.
func NewSide(isBid bool) *Side {
	s := &Side{q: priceTimeQueue{isBid: isBid}}
	heap.Init(&s.q)
	return s
}

// Push inserts a resting order copy into the queue.
func (s *Side) Push(o *domain.Order) {
	heap.Push(&s.q, &entry{order: o})
}

// Peek returns the top-priority order without removing it, or nil if empty.
func (s *Side) Peek() *domain.Order {
	if s.q.Len() == 0 {
		return nil
	}
	return s.q.entries[0].order
}

// Pop removes and returns the top-priority order, or nil if empty.
func (s *Side) Pop() *domain.Order {
	if s.q.Len() == 0 {
		return nil
	}
	e := heap.Pop(&s.q).(*entry)
	return e.order
}

// Len reports the number of resting order copies, including any that are
// stale relative to the registry.
func (s *Side) Len() int { return s.q.Len() }

// PeekLive returns the highest-priority order that is not terminal, without
// mutating the live queue, or nil if every entry is stale. Lazy deletion
// leaves a cancelled (or amend-superseded) order sitting at the top of the
// heap until something actually pops it for matching, so a plain Peek can
// report a price nothing can trade at any more; this walks a disposable
// clone past any such entries to find one the book would actually match
// against.
func (s *Side) PeekLive() *domain.Order {
	clone := s.Clone()
	for clone.Len() > 0 {
		o := clone.Pop()
		if !o.IsTerminal() {
			return o
		}
	}
	return nil
}

// Clone returns an independent copy of the queue holding the same order
// pointers, for use by the FOK liveness check (§4.9's can_fill_order
// behavior) which must walk a snapshot of the book without disturbing the
// live one or the order pointers it protects.
func (s *Side) Clone() *Side {
	c := &Side{q: priceTimeQueue{isBid: s.q.isBid, entries: make([]*entry, len(s.q.entries))}}
	for i, e := range s.q.entries {
		c.q.entries[i] = &entry{order: e.order, index: i}
	}
	return c
}

// Levels aggregates resting quantity by price, in priority order, up to
// maxLevels (0 means unlimited). It is read-only and does not consult the
// registry -- callers that need authoritative depth must reconcile against
// it first (the matching core does this implicitly by construction; ad-hoc
// depth queries accept eventual staleness between mutations).
func (s *Side) Levels(maxLevels int) []PriceLevel {
	clone := s.Clone()
	var out []PriceLevel
	for clone.Len() > 0 {
		o := clone.Pop()
		qty := o.DisplayOrRemaining()
		if qty <= 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Price.Equal(o.Price) {
			out[n-1].Quantity += qty
			continue
		}
		if maxLevels > 0 && len(out) >= maxLevels {
			break
		}
		out = append(out, PriceLevel{Price: o.Price, Quantity: qty})
	}
	return out
}

// PriceLevel is one row of aggregated depth, per §6.1's market_depth.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity int64
}
