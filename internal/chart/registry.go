package chart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"cot-dashboard/internal/domain"
)

var (
	ErrUnknownField     = errors.New("unknown COT field")
	ErrUnknownCommodity = errors.New("unknown commodity")
	ErrInvalidExtremes  = errors.New("extremes min must be before max")
)

// Selection is what the user picked: one commodity, fields in click order and
// the price/volume overlay toggle.
type Selection struct {
	Commodity string   `json:"commodity"`
	Fields    []string `json:"fields"`
	Overlay   bool     `json:"overlay"`
}

// Validate canonicalizes the commodity, drops duplicate fields while keeping
// the first occurrence's position, and rejects unknown names.
func (s Selection) Validate() (Selection, error) {
	commodity, ok := domain.NormalizeCommodity(s.Commodity)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownCommodity, s.Commodity)
	}
	out := Selection{Commodity: commodity, Overlay: s.Overlay, Fields: make([]string, 0, len(s.Fields))}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if !domain.IsKnownField(f) {
			return Selection{}, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out.Fields = append(out.Fields, f)
	}
	return out, nil
}

type entry struct {
	mu        sync.Mutex
	state     *State
	selection Selection
	latest    uint64
	touched   time.Time
}

// Registry holds one chart per dashboard session. Each chart has its own
// request generation: Begin hands out a number and Apply only lands the plan
// carrying the newest one, unless discardStale is off.
type Registry struct {
	mu           sync.Mutex
	entries      map[string]*entry
	discardStale bool
	now          func() time.Time
}

type RegistryOption func(*Registry)

// WithRegistryClock replaces time.Now for idle tracking.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(discardStale bool, opts ...RegistryOption) *Registry {
	r := &Registry{entries: make(map[string]*entry), discardStale: discardStale, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) get(id string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{state: NewState(), selection: Selection{Commodity: domain.CommoditySilver}}
		r.entries[id] = e
	}
	e.touched = r.now()
	return e
}

// Begin records a new selection for the session and returns its generation.
func (r *Registry) Begin(id string, sel Selection) uint64 {
	e := r.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = sel
	e.latest++
	return e.latest
}

// Apply reconciles the session's chart to plan. It reports false when the plan
// belongs to a superseded generation and was discarded.
func (r *Registry) Apply(id string, gen uint64, plan Plan) bool {
	e := r.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.discardStale && gen != e.latest {
		return false
	}
	Reconcile(e.state, plan)
	return true
}

func (r *Registry) Selection(id string) Selection {
	e := r.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := e.selection
	sel.Fields = append([]string(nil), sel.Fields...)
	return sel
}

// SetExtremes stores the zoom window. A nil value resets the zoom.
func (r *Registry) SetExtremes(id string, ext *Extremes) error {
	if ext != nil && ext.Min >= ext.Max {
		return ErrInvalidExtremes
	}
	e := r.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetExtremes(ext)
	return nil
}

func (r *Registry) Snapshot(id string) Snapshot {
	e := r.get(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

// Drop forgets a session's chart, e.g. on logout or expiry.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Sweep drops charts not used for longer than idle and returns how many
// were removed.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	removed := 0
	for id, e := range r.entries {
		if e.touched.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
