package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupmesh/groupmesh-server/config"
	domainerrors "github.com/groupmesh/groupmesh-server/errors"
	"github.com/groupmesh/groupmesh-server/graph"
	"github.com/groupmesh/groupmesh-server/graph/graphtest"
	"github.com/groupmesh/groupmesh-server/slugify"
	"github.com/groupmesh/groupmesh-server/validation"
)

func newPostsResolver(driver *graphtest.Driver) *Posts {
	return NewPosts(
		driver,
		slugify.NewAllocator(NewSlugChecker(driver), 0),
		validation.New(),
		config.CategoriesConfig{Active: true, Min: 1, Max: 3},
		testLogger(),
	)
}

func TestCreatePost(t *testing.T) {
	driver := graphtest.NewDriver()
	driver.Stub("CREATE (post:Post)", graph.Record{
		"post": map[string]any{
			"id":      "pst_1",
			"title":   "Hello World",
			"slug":    "hello-world",
			"content": "First!",
			"author":  map[string]any{"id": "usr_1", "name": "Ada"},
		},
	})

	post, err := newPostsResolver(driver).CreatePost(actorCtx("usr_1"), CreatePostInput{
		Title:       "Hello World",
		Content:     "First!",
		CategoryIDs: []string{"cat-1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello-world", post.Slug)
	require.NotNil(t, post.Author)
	assert.Equal(t, "usr_1", post.Author.ID)

	calls := driver.Calls()
	require.Len(t, calls, 2, "one slug probe, one create")
	assert.Contains(t, calls[0].Query, "(n:Post {slug: $slug})")

	create := calls[1]
	assert.True(t, create.Write)
	assert.Contains(t, create.Query, "MERGE (author)-[:WROTE]->(post)")
	assert.Contains(t, create.Query, "UNWIND $categoryIds")
	assert.Equal(t, "usr_1", create.Params["userId"])

	assert.Zero(t, driver.OpenSessions())
}

func TestCreatePostSlugConflictUsesPostLabel(t *testing.T) {
	driver := graphtest.NewDriver()
	driver.Stub("{slug: $slug}", graph.Record{"slug": "taken"})

	_, err := newPostsResolver(driver).CreatePost(actorCtx("usr_1"), CreatePostInput{
		Title:       "Anything",
		Slug:        "taken",
		Content:     "x",
		CategoryIDs: []string{"cat-1"},
	})

	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrSlugConflict))
	assert.EqualError(t, err, "Post with this slug already exists!")
}

func TestCreatePostCategoryBounds(t *testing.T) {
	driver := graphtest.NewDriver()

	_, err := newPostsResolver(driver).CreatePost(actorCtx("usr_1"), CreatePostInput{
		Title:   "Hello",
		Content: "x",
	})

	require.Error(t, err)
	assert.EqualError(t, err, "Too few categories!")
	assert.Empty(t, driver.Calls())
}

func TestCreatePostRequiresActor(t *testing.T) {
	driver := graphtest.NewDriver()

	_, err := newPostsResolver(driver).CreatePost(context.Background(), CreatePostInput{
		Title:       "Hello",
		Content:     "x",
		CategoryIDs: []string{"cat-1"},
	})

	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))
	assert.Empty(t, driver.Calls())
}

func TestUpdatePostReslugFromTitle(t *testing.T) {
	driver := graphtest.NewDriver()
	driver.Stub("{id: $id}", graph.Record{"slug": "old-title"})
	driver.Stub("SET post += $props", graph.Record{
		"post": map[string]any{"id": "pst_1", "title": "New Title", "slug": "new-title"},
	})

	post, err := newPostsResolver(driver).UpdatePost(actorCtx("usr_1"), UpdatePostInput{
		ID:    "pst_1",
		Title: strPtr("New Title"),
	})

	require.NoError(t, err)
	assert.Equal(t, "new-title", post.Slug)

	// The derived slug was probed before the write.
	var sawProbe bool
	for _, call := range driver.Calls() {
		if call.Params["slug"] == "new-title" {
			sawProbe = true
		}
	}
	assert.True(t, sawProbe)
}

func TestUpdatePostUnchangedTitleKeepsSlug(t *testing.T) {
	driver := graphtest.NewDriver()
	driver.Stub("{id: $id}", graph.Record{"slug": "same-title"})
	driver.Stub("SET post += $props", graph.Record{
		"post": map[string]any{"id": "pst_1", "slug": "same-title"},
	})

	_, err := newPostsResolver(driver).UpdatePost(actorCtx("usr_1"), UpdatePostInput{
		ID:    "pst_1",
		Title: strPtr("Same Title"),
	})

	require.NoError(t, err)

	for _, call := range driver.Calls() {
		props, ok := call.Params["props"].(map[string]any)
		if !ok {
			continue
		}
		_, hasSlug := props["slug"]
		assert.False(t, hasSlug, "a title deriving to the current slug must not re-slug")
	}
}

func TestPostsQueryFilters(t *testing.T) {
	driver := graphtest.NewDriver()
	driver.Stub("MATCH (post:Post",
		graph.Record{"post": map[string]any{"id": "pst_1", "slug": "hello-world"}},
	)

	posts, err := newPostsResolver(driver).Posts(context.Background(), PostFilter{
		Slug: strPtr("hello-world"),
	})

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "pst_1", posts[0].ID)

	calls := driver.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Write)
	assert.Contains(t, calls[0].Query, "(post:Post {slug: $filter_slug})")
	assert.Equal(t, "hello-world", calls[0].Params["filter_slug"])
}
