package slugify

import (
	"context"
	"fmt"

	"github.com/groupmesh/groupmesh-server/errors"
	"github.com/groupmesh/groupmesh-server/graph"
)

// Checker answers whether a slug is already taken for a node label. Every call
// is a fresh store read; the allocator never caches.
type Checker interface {
	SlugExists(ctx context.Context, label graph.Label, slug string) (bool, error)
}

// Allocator decides the final slug for an entity.
//
// The existence checks and the eventual write are not atomic: two concurrent
// allocations can both see a candidate as free. The allocator only narrows the
// collision window; the store's uniqueness constraint is the authority, and a
// commit-time violation surfaces from the resolvers as the same slug-conflict
// error. This optimistic two-layer design is deliberate - do not wrap the
// allocator in a lock.
type Allocator struct {
	checker   Checker
	maxProbes int
}

// NewAllocator creates an allocator over the given checker. maxProbes caps the
// suffix search of auto-derived slugs; zero leaves the search unbounded.
func NewAllocator(checker Checker, maxProbes int) *Allocator {
	return &Allocator{checker: checker, maxProbes: maxProbes}
}

// Allocate returns the final slug for an entity of the given label.
//
// If explicit is non-empty the caller chose the slug: a collision is rejected
// with a slug-conflict error, never auto-suffixed. Otherwise the slug is
// derived from baseText and collisions are resolved by probing base-1, base-2,
// ... until a free candidate is found (failing closed once maxProbes is
// exceeded, when configured).
func (a *Allocator) Allocate(ctx context.Context, label graph.Label, baseText, explicit string) (string, error) {
	if explicit != "" {
		taken, err := a.checker.SlugExists(ctx, label, explicit)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", explicit, err)
		}
		if taken {
			return "", errors.SlugConflictf("%s with this slug already exists!", label)
		}
		return explicit, nil
	}

	base := Derive(baseText)
	if base == "" {
		return "", errors.Validationf("cannot derive a slug from %q", baseText)
	}

	candidate := base
	for probe := 1; ; probe++ {
		taken, err := a.checker.SlugExists(ctx, label, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		if a.maxProbes > 0 && probe > a.maxProbes {
			return "", errors.SlugExhausted(fmt.Sprintf("no free slug for %q after %d probes", base, a.maxProbes))
		}
		candidate = fmt.Sprintf("%s-%d", base, probe)
	}
}
