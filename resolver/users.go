package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupmesh/groupmesh-server/domain"
	domainerrors "github.com/groupmesh/groupmesh-server/errors"
	"github.com/groupmesh/groupmesh-server/graph"
	"github.com/groupmesh/groupmesh-server/internal/id"
	"github.com/groupmesh/groupmesh-server/slugify"
	"github.com/groupmesh/groupmesh-server/validation"
)

// Users resolves user operations. User creation does not require an acting
// user: it backs the signup path.
type Users struct {
	driver   graph.Driver
	slugs    *slugify.Allocator
	validate *validation.Validator
	logger   *slog.Logger
}

func NewUsers(
	driver graph.Driver,
	slugs *slugify.Allocator,
	validate *validation.Validator,
	logger *slog.Logger,
) *Users {
	return &Users{
		driver:   driver,
		slugs:    slugs,
		validate: validate,
		logger:   logger,
	}
}

// CreateUserInput carries the arguments of the CreateUser operation.
type CreateUserInput struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" validate:"required"`
	Slug  string `json:"slug,omitempty"`
	About string `json:"about,omitempty"`
}

const createUserQuery = `
CREATE (user:User)
SET user += $props
SET user.createdAt = toString(datetime())
SET user.updatedAt = toString(datetime())
RETURN user {.*}
`

// CreateUser creates a user node with an allocated slug. An explicit slug
// already taken by another user is rejected; a derived slug probes numeric
// suffixes until free.
func (r *Users) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := r.validate.Validate(input); err != nil {
		return nil, err
	}

	if input.ID == "" {
		generated, err := id.Generate(id.PrefixUser)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate user id")
		}
		input.ID = generated
	}

	slug, err := r.slugs.Allocate(ctx, graph.LabelUser, input.Name, input.Slug)
	if err != nil {
		return nil, err
	}

	props := map[string]any{
		"id":    input.ID,
		"name":  input.Name,
		"slug":  slug,
		"about": input.About,
	}

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, createUserQuery, map[string]any{"props": props})
		if err != nil {
			return nil, err
		}
		projection, ok := firstProjection(records, "user")
		if !ok {
			return nil, domainerrors.Internal("user projection missing")
		}
		return projection, nil
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelUser)
	}

	user := domain.UserFromProps(out.(map[string]any))
	r.logger.Info("user created", "user_id", user.ID, "slug", user.Slug)
	return user, nil
}

// UpdateUserInput carries the arguments of the UpdateUser operation. Nil
// fields leave the stored value untouched.
type UpdateUserInput struct {
	ID    string  `json:"id" validate:"required"`
	Name  *string `json:"name,omitempty"`
	Slug  *string `json:"slug,omitempty"`
	About *string `json:"about,omitempty"`
}

const updateUserQuery = `
MATCH (user:User {id: $userId})
SET user += $props
SET user.updatedAt = toString(datetime())
RETURN user {.*}
`

// UpdateUser applies a sparse update to a user, re-allocating the slug when
// the name or slug changes.
func (r *Users) UpdateUser(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	actorID, ok := ActorID(ctx)
	if !ok {
		return nil, domainerrors.Unauthorized("not authenticated")
	}
	if actorID != input.ID {
		return nil, domainerrors.Unauthorized("users may only update themselves")
	}

	if err := r.validate.Validate(input); err != nil {
		return nil, err
	}

	slug, err := r.resolveUpdateSlug(ctx, input)
	if err != nil {
		return nil, err
	}

	props := map[string]any{}
	if input.Name != nil {
		props["name"] = *input.Name
	}
	if slug != "" {
		props["slug"] = slug
	}
	if input.About != nil {
		props["about"] = *input.About
	}

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, updateUserQuery, map[string]any{
			"userId": input.ID,
			"props":  props,
		})
		if err != nil {
			return nil, err
		}
		projection, ok := firstProjection(records, "user")
		if !ok {
			return nil, domainerrors.NotFoundf("User %s not found", input.ID)
		}
		return projection, nil
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelUser)
	}

	return domain.UserFromProps(out.(map[string]any)), nil
}

func (r *Users) resolveUpdateSlug(ctx context.Context, input UpdateUserInput) (string, error) {
	if input.Slug == nil && input.Name == nil {
		return "", nil
	}

	current, err := currentSlug(ctx, r.driver, graph.LabelUser, input.ID)
	if err != nil {
		return "", err
	}

	if input.Slug != nil {
		if *input.Slug == current {
			return "", nil
		}
		return r.slugs.Allocate(ctx, graph.LabelUser, "", *input.Slug)
	}

	if slugify.Derive(*input.Name) == current {
		return "", nil
	}
	return r.slugs.Allocate(ctx, graph.LabelUser, *input.Name, "")
}

// UserFilter selects users by optional attributes.
type UserFilter struct {
	ID   *string
	Slug *string
}

const usersQuery = `
MATCH (user:User%s)
RETURN user {.*}
`

// Users returns the users matching the filter.
func (r *Users) Users(ctx context.Context, filter UserFilter) ([]*domain.User, error) {
	match := graph.NewMatchFilter().
		SetString("id", filter.ID).
		SetString("slug", filter.Slug)

	query := fmt.Sprintf(usersQuery, match.Fragment())

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		return tx.Run(ctx, query, match.Params())
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelUser)
	}

	records, _ := out.([]graph.Record)
	users := make([]*domain.User, 0, len(records))
	for _, record := range records {
		if props, ok := record["user"].(map[string]any); ok {
			users = append(users, domain.UserFromProps(props))
		}
	}
	return users, nil
}
