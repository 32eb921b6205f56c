package patient

import (
	"context"
	"fmt"
	"log"
)

// Resolver binds an intake conversation to a durable patient record.
//
// Matching is a deliberate heuristic: any stored name containing the given
// name as a substring (or vice versa) is a candidate, so a returning patient
// who retypes their name slightly differently is still recognized. When
// several candidates match, the earliest-created one wins and the ambiguity
// is logged; short or common names can therefore collide.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the matching patient record, creating a new one with only
// the name populated when nothing matches. The returned bool reports whether
// a record was created.
func (r *Resolver) Resolve(ctx context.Context, name string) (Patient, bool, error) {
	candidates, err := r.store.FindByNameLike(ctx, name)
	if err != nil {
		return Patient{}, false, fmt.Errorf("find candidates: %w", err)
	}
	if len(candidates) > 0 {
		if len(candidates) > 1 {
			log.Printf("ambiguous identity match for %q: %d candidates, binding earliest (id=%s)",
				name, len(candidates), candidates[0].ID)
		}
		return candidates[0], false, nil
	}

	p, err := r.store.Create(ctx, name)
	if err != nil {
		return Patient{}, false, fmt.Errorf("create patient: %w", err)
	}
	return p, true, nil
}
