package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupmesh/groupmesh-server/config"
	"github.com/groupmesh/groupmesh-server/domain"
	domainerrors "github.com/groupmesh/groupmesh-server/errors"
	"github.com/groupmesh/groupmesh-server/graph"
	"github.com/groupmesh/groupmesh-server/internal/id"
	"github.com/groupmesh/groupmesh-server/slugify"
	"github.com/groupmesh/groupmesh-server/validation"
)

// Posts resolves post operations. Posts carry the same slug contract as
// groups: unique per label, derived from the title unless supplied.
type Posts struct {
	driver     graph.Driver
	slugs      *slugify.Allocator
	validate   *validation.Validator
	categories config.CategoriesConfig
	logger     *slog.Logger
}

func NewPosts(
	driver graph.Driver,
	slugs *slugify.Allocator,
	validate *validation.Validator,
	categories config.CategoriesConfig,
	logger *slog.Logger,
) *Posts {
	return &Posts{
		driver:     driver,
		slugs:      slugs,
		validate:   validate,
		categories: categories,
		logger:     logger,
	}
}

// CreatePostInput carries the arguments of the CreatePost operation.
type CreatePostInput struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title" validate:"required"`
	Slug        string   `json:"slug,omitempty"`
	Content     string   `json:"content" validate:"required"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
}

const createPostQuery = `
CREATE (post:Post)
SET post += $props
SET post.createdAt = toString(datetime())
SET post.updatedAt = toString(datetime())
WITH post
MATCH (author:User {id: $userId})
MERGE (author)-[:WROTE]->(post)
%s
RETURN post {.*, author: author {.*}}
`

const createPostCategoriesFragment = `
WITH post, author
UNWIND $categoryIds AS categoryId
MATCH (category:Category {id: categoryId})
MERGE (post)-[:CATEGORIZED]->(category)
`

// CreatePost creates a post written by the acting user. The slug is allocated
// before the write transaction; a concurrent taker of the same slug surfaces
// as a conflict when the store's uniqueness constraint rejects the commit.
func (r *Posts) CreatePost(ctx context.Context, input CreatePostInput) (*domain.Post, error) {
	actorID, ok := ActorID(ctx)
	if !ok {
		return nil, domainerrors.Unauthorized("not authenticated")
	}

	if err := r.validate.Validate(input); err != nil {
		return nil, err
	}
	if err := r.validateCategoryCount(input.CategoryIDs); err != nil {
		return nil, err
	}

	if input.ID == "" {
		generated, err := id.Generate(id.PrefixPost)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate post id")
		}
		input.ID = generated
	}

	slug, err := r.slugs.Allocate(ctx, graph.LabelPost, input.Title, input.Slug)
	if err != nil {
		return nil, err
	}

	categoriesFragment := ""
	if r.categories.Active && len(input.CategoryIDs) > 0 {
		categoriesFragment = createPostCategoriesFragment
	}

	props := map[string]any{
		"id":      input.ID,
		"title":   input.Title,
		"slug":    slug,
		"content": input.Content,
	}

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, fmt.Sprintf(createPostQuery, categoriesFragment), map[string]any{
			"props":       props,
			"userId":      actorID,
			"categoryIds": input.CategoryIDs,
		})
		if err != nil {
			return nil, err
		}
		projection, ok := firstProjection(records, "post")
		if !ok {
			return nil, domainerrors.NotFoundf("user %s not found", actorID)
		}
		return projection, nil
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelPost)
	}

	post := domain.PostFromProps(out.(map[string]any))
	r.logger.Info("post created", "post_id", post.ID, "slug", post.Slug, "author_id", actorID)
	return post, nil
}

// UpdatePostInput carries the arguments of the UpdatePost operation. Nil
// fields leave the stored value untouched.
type UpdatePostInput struct {
	ID          string   `json:"id" validate:"required"`
	Title       *string  `json:"title,omitempty"`
	Slug        *string  `json:"slug,omitempty"`
	Content     *string  `json:"content,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
}

const updatePostQueryHead = `
MATCH (post:Post {id: $postId})
SET post += $props
SET post.updatedAt = toString(datetime())
WITH post
`

const updatePostCategoriesFragment = `
UNWIND $categoryIds AS categoryId
MATCH (category:Category {id: categoryId})
MERGE (post)-[:CATEGORIZED]->(category)
WITH post
`

const updatePostQueryTail = `
RETURN post {.*}
`

const deletePostCategoriesQuery = `
MATCH (post:Post {id: $postId})-[previousRelations:CATEGORIZED]->(category:Category)
DELETE previousRelations
RETURN post, category
`

// UpdatePost applies a sparse update to a post, replacing category edges
// wholesale when category ids are supplied.
func (r *Posts) UpdatePost(ctx context.Context, input UpdatePostInput) (*domain.Post, error) {
	if _, ok := ActorID(ctx); !ok {
		return nil, domainerrors.Unauthorized("not authenticated")
	}

	if err := r.validate.Validate(input); err != nil {
		return nil, err
	}
	if input.CategoryIDs != nil {
		if err := r.validateCategoryCount(input.CategoryIDs); err != nil {
			return nil, err
		}
	}

	slug, err := r.resolveUpdateSlug(ctx, input)
	if err != nil {
		return nil, err
	}

	props := map[string]any{}
	if input.Title != nil {
		props["title"] = *input.Title
	}
	if slug != "" {
		props["slug"] = slug
	}
	if input.Content != nil {
		props["content"] = *input.Content
	}

	replaceCategories := r.categories.Active && len(input.CategoryIDs) > 0

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	if replaceCategories {
		_, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
			return tx.Run(ctx, deletePostCategoriesQuery, map[string]any{"postId": input.ID})
		})
		if err != nil {
			return nil, translateErr(err, graph.LabelPost)
		}
	}

	query := updatePostQueryHead
	if replaceCategories {
		query += updatePostCategoriesFragment
	}
	query += updatePostQueryTail

	out, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{
			"postId":      input.ID,
			"categoryIds": input.CategoryIDs,
			"props":       props,
		})
		if err != nil {
			return nil, err
		}
		projection, ok := firstProjection(records, "post")
		if !ok {
			return nil, domainerrors.NotFoundf("Post %s not found", input.ID)
		}
		return projection, nil
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelPost)
	}

	return domain.PostFromProps(out.(map[string]any)), nil
}

func (r *Posts) resolveUpdateSlug(ctx context.Context, input UpdatePostInput) (string, error) {
	if input.Slug == nil && input.Title == nil {
		return "", nil
	}

	current, err := currentSlug(ctx, r.driver, graph.LabelPost, input.ID)
	if err != nil {
		return "", err
	}

	if input.Slug != nil {
		if *input.Slug == current {
			return "", nil
		}
		return r.slugs.Allocate(ctx, graph.LabelPost, "", *input.Slug)
	}

	if slugify.Derive(*input.Title) == current {
		return "", nil
	}
	return r.slugs.Allocate(ctx, graph.LabelPost, *input.Title, "")
}

// PostFilter selects posts by optional attributes.
type PostFilter struct {
	ID   *string
	Slug *string
}

const postsQuery = `
MATCH (post:Post%s)
OPTIONAL MATCH (author:User)-[:WROTE]->(post)
RETURN post {.*, author: author {.*}}
`

// Posts returns the posts matching the filter, each with its author.
func (r *Posts) Posts(ctx context.Context, filter PostFilter) ([]*domain.Post, error) {
	match := graph.NewMatchFilter().
		SetString("id", filter.ID).
		SetString("slug", filter.Slug)

	query := fmt.Sprintf(postsQuery, match.Fragment())

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		return tx.Run(ctx, query, match.Params())
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelPost)
	}

	records, _ := out.([]graph.Record)
	posts := make([]*domain.Post, 0, len(records))
	for _, record := range records {
		if props, ok := record["post"].(map[string]any); ok {
			posts = append(posts, domain.PostFromProps(props))
		}
	}
	return posts, nil
}

func (r *Posts) validateCategoryCount(categoryIDs []string) error {
	if !r.categories.Active {
		return nil
	}
	if len(categoryIDs) < r.categories.Min {
		return domainerrors.Validation("Too few categories!")
	}
	if len(categoryIDs) > r.categories.Max {
		return domainerrors.Validation("Too many categories!")
	}
	return nil
}
