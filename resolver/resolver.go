// Package resolver implements the entity transaction resolvers of the
// groupmesh core.
//
// Each operation acquires a dedicated store session, runs one or more
// transactions through the graph port, enforces the business invariants, and
// translates store errors into domain errors. Validation always happens before
// a session is opened; sessions are released on every exit path.
package resolver

import (
	"context"
	"fmt"

	domainerrors "github.com/groupmesh/groupmesh-server/errors"
	"github.com/groupmesh/groupmesh-server/graph"
	"github.com/groupmesh/groupmesh-server/slugify"
)

// SlugChecker satisfies slugify.Checker with a fresh store read per probe.
// No slug is ever cached: the allocator's pre-check is advisory and the
// store's uniqueness constraint remains the authority.
type SlugChecker struct {
	driver graph.Driver
}

// NewSlugChecker creates a checker over the given driver.
func NewSlugChecker(driver graph.Driver) *SlugChecker {
	return &SlugChecker{driver: driver}
}

var _ slugify.Checker = (*SlugChecker)(nil)

// SlugExists reports whether an entity of the given label already carries slug.
func (c *SlugChecker) SlugExists(ctx context.Context, label graph.Label, slug string) (bool, error) {
	if !label.Valid() {
		return false, domainerrors.Internalf("invalid node label %q", label)
	}

	session := c.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		query := fmt.Sprintf("MATCH (n:%s {slug: $slug}) RETURN n.slug AS slug LIMIT 1", label)
		records, err := tx.Run(ctx, query, map[string]any{"slug": slug})
		if err != nil {
			return false, err
		}
		return len(records) > 0, nil
	})
	if err != nil {
		return false, translateErr(err, label)
	}

	taken, _ := out.(bool)
	return taken, nil
}

// translateErr maps a store failure onto the domain error taxonomy. Constraint
// violations become the user-facing slug conflict for the label; connectivity
// failures propagate as store-unavailable; domain errors returned from inside
// transaction work pass through untouched.
func translateErr(err error, label graph.Label) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		return err
	}

	if graph.IsConstraintViolation(err) {
		return domainerrors.SlugConflictf("%s with this slug already exists!", label)
	}

	if graph.IsUnavailable(err) {
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "graph store unavailable")
	}

	return domainerrors.Wrap(err, domainerrors.CodeInternal, "graph transaction failed")
}

// firstProjection extracts the named node projection from the first record.
func firstProjection(records []graph.Record, key string) (map[string]any, bool) {
	if len(records) == 0 {
		return nil, false
	}
	props, ok := records[0][key].(map[string]any)
	return props, ok
}

// currentSlug reads the slug an entity currently holds, by id.
func currentSlug(ctx context.Context, driver graph.Driver, label graph.Label, entityID string) (string, error) {
	if !label.Valid() {
		return "", domainerrors.Internalf("invalid node label %q", label)
	}

	session := driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		query := fmt.Sprintf("MATCH (n:%s {id: $id}) RETURN n.slug AS slug LIMIT 1", label)
		records, err := tx.Run(ctx, query, map[string]any{"id": entityID})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, domainerrors.NotFoundf("%s %s not found", label, entityID)
		}
		slug, _ := records[0]["slug"].(string)
		return slug, nil
	})
	if err != nil {
		return "", translateErr(err, label)
	}

	slug, _ := out.(string)
	return slug, nil
}

// mergeParams combines parameter maps; later maps win on key collisions.
func mergeParams(maps ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
