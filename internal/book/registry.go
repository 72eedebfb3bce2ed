package book

import "github.com/vkarasev/matchcore/internal/domain"

// Registry is the single source of truth for order state (C3). Priority
// books store copies that may go stale; every mutation the matching core
// makes must be written back here before the order is re-pushed or dropped,
// per §4.2.
type Registry struct {
	active    map[int64]*domain.Order
	cancelled map[int64]*domain.Order
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active:    make(map[int64]*domain.Order),
		cancelled: make(map[int64]*domain.Order),
	}
}

// Upsert inserts or overwrites the registry entry for o.ID, per §4.9's
// explicit insert-or-assign contract for duplicate ids.
func (r *Registry) Upsert(o *domain.Order) {
	delete(r.cancelled, o.ID)
	r.active[o.ID] = o
}

// Lookup returns the current authoritative record for id, searching active
// orders first and then the cancelled-orders mirror, per §3.2.
func (r *Registry) Lookup(id int64) (*domain.Order, bool) {
	if o, ok := r.active[id]; ok {
		return o, true
	}
	if o, ok := r.cancelled[id]; ok {
		return o, true
	}
	return nil, false
}

// Reconcile implements the lazy-deletion contract of §4.2 steps 1-4: given a
// candidate popped from a priority book, it returns the authoritative
// registry copy and whether the candidate is still live. Orders are shared
// by pointer between the registry and the priority books in this
// implementation (§9's "solve interior mutation by writing back through the
// id, never by holding a long-lived reference" is satisfied for free when
// registry and book both hold the same *domain.Order) so a candidate is
// stale exactly when the registry's current entry for its id is a
// different pointer (superseded by amend's cancel-and-resubmit), or when
// the registry's copy is terminal, or when display is exhausted but
// remaining is still positive (a pre-refresh snapshot).
func (r *Registry) Reconcile(candidate *domain.Order) (*domain.Order, bool) {
	authoritative, ok := r.Lookup(candidate.ID)
	if !ok {
		return nil, false
	}
	if authoritative != candidate {
		return nil, false
	}
	if authoritative.IsTerminal() {
		return nil, false
	}
	if authoritative.Display == 0 && authoritative.Remaining > 0 {
		return nil, false
	}
	return authoritative, true
}

// Cancel marks id CANCELLED and moves it into the cancelled-orders mirror,
// per §4.6. Returns false without side effects if id is unknown or already
// terminal.
func (r *Registry) Cancel(id int64) bool {
	o, ok := r.active[id]
	if !ok || o.IsTerminal() {
		return false
	}
	o.State = domain.Cancelled
	delete(r.active, id)
	r.cancelled[id] = o
	return true
}

// MarkTerminal moves o into the cancelled-orders mirror when its state is
// Cancelled; for any other state it leaves the entry where it is, so FILLED
// orders remain queryable from the active map, matching §3.2's "registry
// retains them" rule without requiring a second mirror for fills. The
// matching core does not call it: orders cancelled by FOK/IOC/MARKET
// handling have their State set directly and keep their active-map entry,
// where Lookup still finds them.
func (r *Registry) MarkTerminal(o *domain.Order) {
	if o.State == domain.Cancelled {
		delete(r.active, o.ID)
		r.cancelled[o.ID] = o
	}
}

// ActiveOrders returns every order held in the active map, for snapshot
// construction (§4.8). That includes dormant stops and orders that reached
// a terminal state without going through Cancel (FILLED orders, and FOK/IOC
// or MARKET remainders cancelled by the matching core); only orders moved
// into the cancelled mirror are left out.
func (r *Registry) ActiveOrders() []*domain.Order {
	out := make([]*domain.Order, 0, len(r.active))
	for _, o := range r.active {
		out = append(out, o)
	}
	return out
}

// Reset wipes all registry state, used by load_snapshot before rebuilding
// (§4.8's "restoration wipes current state").
func (r *Registry) Reset() {
	r.active = make(map[int64]*domain.Order)
	r.cancelled = make(map[int64]*domain.Order)
}
