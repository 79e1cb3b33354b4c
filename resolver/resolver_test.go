package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/groupmesh/groupmesh-server/errors"
	"github.com/groupmesh/groupmesh-server/graph"
	"github.com/groupmesh/groupmesh-server/graph/graphtest"
)

func TestSlugCheckerInterpolatesLabel(t *testing.T) {
	driver := graphtest.NewDriver()
	checker := NewSlugChecker(driver)

	taken, err := checker.SlugExists(context.Background(), graph.LabelPost, "hello")

	require.NoError(t, err)
	assert.False(t, taken)

	calls := driver.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "MATCH (n:Post {slug: $slug})")
	assert.Equal(t, "hello", calls[0].Params["slug"], "the slug is bound, never interpolated")
	assert.Zero(t, driver.OpenSessions())
}

func TestSlugCheckerRejectsInvalidLabel(t *testing.T) {
	driver := graphtest.NewDriver()
	checker := NewSlugChecker(driver)

	_, err := checker.SlugExists(context.Background(), graph.Label("Group) DETACH DELETE n //"), "x")

	require.Error(t, err)
	assert.Empty(t, driver.Calls(), "an invalid label must never reach the store")
}

func TestSlugCheckerReportsTaken(t *testing.T) {
	driver := graphtest.NewDriver()
	driver.Stub("{slug: $slug}", graph.Record{"slug": "hello"})
	checker := NewSlugChecker(driver)

	taken, err := checker.SlugExists(context.Background(), graph.LabelGroup, "hello")

	require.NoError(t, err)
	assert.True(t, taken)
}

func TestTranslateErr(t *testing.T) {
	domainErr := domainerrors.NotFound("gone")

	tests := []struct {
		name string
		in   error
		want *domainerrors.Error
	}{
		{
			name: "domain errors pass through",
			in:   domainErr,
			want: domainErr,
		},
		{
			name: "constraint violation becomes slug conflict",
			in:   &graph.ConstraintViolationError{Code: "Neo.ClientError.Schema.ConstraintValidationFailed"},
			want: domainerrors.ErrSlugConflict,
		},
		{
			name: "connectivity failure becomes unavailable",
			in:   &graph.UnavailableError{Err: errors.New("no reachable servers")},
			want: domainerrors.ErrUnavailable,
		},
		{
			name: "anything else becomes internal",
			in:   errors.New("boom"),
			want: domainerrors.ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateErr(tt.in, graph.LabelGroup)
			assert.True(t, domainerrors.Is(got, tt.want))
		})
	}
}

func TestTranslateErrNil(t *testing.T) {
	assert.NoError(t, translateErr(nil, graph.LabelGroup))
}

func TestActorContext(t *testing.T) {
	_, ok := ActorID(context.Background())
	assert.False(t, ok)

	_, ok = ActorID(WithActor(context.Background(), ""))
	assert.False(t, ok, "an empty actor id is not an identity")

	id, ok := ActorID(WithActor(context.Background(), "usr_1"))
	assert.True(t, ok)
	assert.Equal(t, "usr_1", id)
}
