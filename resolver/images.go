package resolver

import (
	"context"

	"github.com/groupmesh/groupmesh-server/domain"
	"github.com/groupmesh/groupmesh-server/graph"
)

// ImageMerger attaches an avatar image to a group inside an already-open write
// transaction. The actual image pipeline lives outside the core; this port is
// what UpdateGroup delegates to.
type ImageMerger interface {
	MergeGroupAvatar(ctx context.Context, tx graph.Tx, groupID string, avatar *domain.ImageInput) error
}

// NoopImageMerger ignores avatar input. It is the default when no image
// collaborator is wired.
type NoopImageMerger struct{}

// MergeGroupAvatar does nothing.
func (NoopImageMerger) MergeGroupAvatar(context.Context, graph.Tx, string, *domain.ImageInput) error {
	return nil
}
