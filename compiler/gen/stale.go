package gen

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/grace/schema"
)

// Ledger records when the file of each object was last generated.
type Ledger interface {
	// LastGenerated returns the last generation time of an object of the
	// domain. The bool is false when it was never generated.
	LastGenerated(ctx context.Context, domain string, object uuid.UUID) (time.Time, bool, error)
	// MarkGenerated records a generation of an object of the domain.
	MarkGenerated(ctx context.Context, domain string, object uuid.UUID, at time.Time) error
}

// IsObjectStale reports whether the file of o must be regenerated. It is
// stale when it was never generated, when the generator was built after
// the last generation, or when o or anything reachable from it changed
// since then: attributes, supertypes, subtypes, referents, referrers,
// associative relationships, states and events.
func IsObjectStale(m schema.Model, o *schema.Object, lastGenerated *time.Time, buildTime time.Time) bool {
	if lastGenerated == nil {
		return true
	}
	last := *lastGenerated
	if buildTime.After(last) {
		return true
	}
	return NewestChange(m, o).After(last)
}

// NewestChange returns the newest modification time of o and every
// entity the staleness check visits.
func NewestChange(m schema.Model, o *schema.Object) time.Time {
	t := o.Modified
	bump := func(ts time.Time) {
		if ts.After(t) {
			t = ts
		}
	}
	for _, a := range m.Attributes(o) {
		bump(a.Modified)
	}
	for _, isa := range m.IsasAsSubtype(o) {
		bump(isa.Timestamp())
		if isa.Supertype != nil {
			bump(isa.Supertype.Modified)
		}
	}
	for _, isa := range m.IsasAsSupertype(o) {
		bump(isa.Timestamp())
		for _, s := range isa.Subtypes {
			bump(s.Modified)
		}
	}
	for _, b := range m.BinariesAsReferrer(o) {
		bump(b.Timestamp())
		bump(b.Referent.Object.Modified)
	}
	for _, b := range m.BinariesAsReferent(o) {
		bump(b.Timestamp())
		bump(b.Referrer.Object.Modified)
	}
	for _, a := range m.AssociativesAsReferrer(o) {
		bump(a.Timestamp())
		for _, r := range a.Referents {
			bump(r.Object.Modified)
		}
	}
	for _, a := range m.AssociativesAsReferent(o) {
		bump(a.Timestamp())
		bump(a.Referrer.Object.Modified)
	}
	for _, s := range m.States(o) {
		bump(s.Modified)
	}
	for _, e := range m.Events(o) {
		bump(e.Modified)
	}
	return t
}

// Stale reports whether the file of t must be regenerated, consulting
// the ledger unless AlwaysProcess is set. Without a ledger every object
// is stale.
func (g *Graph) Stale(ctx context.Context, l Ledger, t *Type) (bool, error) {
	if g.AlwaysProcess || l == nil {
		return true, nil
	}
	at, ok, err := l.LastGenerated(ctx, g.Model.Name(), t.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return IsObjectStale(g.Model, t.Object, &at, g.BuildTime), nil
}
