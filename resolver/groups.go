package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupmesh/groupmesh-server/config"
	"github.com/groupmesh/groupmesh-server/domain"
	domainerrors "github.com/groupmesh/groupmesh-server/errors"
	"github.com/groupmesh/groupmesh-server/graph"
	"github.com/groupmesh/groupmesh-server/internal/htmltext"
	"github.com/groupmesh/groupmesh-server/internal/id"
	"github.com/groupmesh/groupmesh-server/slugify"
	"github.com/groupmesh/groupmesh-server/validation"
)

// Groups resolves group operations against the social graph.
type Groups struct {
	driver     graph.Driver
	slugs      *slugify.Allocator
	validate   *validation.Validator
	categories config.CategoriesConfig
	groups     config.GroupsConfig
	images     ImageMerger
	logger     *slog.Logger
}

// NewGroups creates the group resolver. A nil images collaborator disables
// avatar merging.
func NewGroups(
	driver graph.Driver,
	slugs *slugify.Allocator,
	validate *validation.Validator,
	categories config.CategoriesConfig,
	groups config.GroupsConfig,
	images ImageMerger,
	logger *slog.Logger,
) *Groups {
	if images == nil {
		images = NoopImageMerger{}
	}
	return &Groups{
		driver:     driver,
		slugs:      slugs,
		validate:   validate,
		categories: categories,
		groups:     groups,
		images:     images,
		logger:     logger,
	}
}

// CreateGroupInput carries the arguments of the CreateGroup operation.
type CreateGroupInput struct {
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name" validate:"required"`
	Slug         string              `json:"slug,omitempty"`
	About        string              `json:"about,omitempty"`
	Description  string              `json:"description" validate:"required"`
	GroupType    domain.GroupType    `json:"groupType" validate:"required,oneof=public closed hidden"`
	ActionRadius domain.ActionRadius `json:"actionRadius" validate:"required,oneof=regional national continental global interplanetary"`
	CategoryIDs  []string            `json:"categoryIds,omitempty"`
}

const createGroupQuery = `
CREATE (group:Group)
SET group += $props
SET group.createdAt = toString(datetime())
SET group.updatedAt = toString(datetime())
WITH group
MATCH (owner:User {id: $userId})
MERGE (owner)-[:CREATED]->(group)
MERGE (owner)-[membership:MEMBER_OF]->(group)
SET
  membership.createdAt = toString(datetime()),
  membership.updatedAt = null,
  membership.role = 'owner'
%s
RETURN group {.*, myRole: membership.role}
`

const createGroupCategoriesFragment = `
WITH group, membership
UNWIND $categoryIds AS categoryId
MATCH (category:Category {id: categoryId})
MERGE (group)-[:CATEGORIZED]->(category)
`

// CreateGroup creates a group owned by the acting user.
//
// Within one write transaction the group node is created with store-assigned
// timestamps, the actor gets the single CREATED edge and an owner MEMBER_OF
// edge, and category edges are merged when category enforcement is active.
// A commit-time uniqueness rejection of the slug surfaces as a slug conflict.
func (r *Groups) CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.Group, error) {
	actorID, ok := ActorID(ctx)
	if !ok {
		return nil, domainerrors.Unauthorized("not authenticated")
	}

	if err := r.validate.Validate(input); err != nil {
		return nil, err
	}
	if err := r.validateCategoryCount(input.CategoryIDs, true); err != nil {
		return nil, err
	}
	if err := r.validateDescription(input.Description); err != nil {
		return nil, err
	}

	if input.ID == "" {
		generated, err := id.Generate(id.PrefixGroup)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate group id")
		}
		input.ID = generated
	}

	slug, err := r.slugs.Allocate(ctx, graph.LabelGroup, input.Name, input.Slug)
	if err != nil {
		return nil, err
	}

	categoriesFragment := ""
	if r.categories.Active && len(input.CategoryIDs) > 0 {
		categoriesFragment = createGroupCategoriesFragment
	}

	props := map[string]any{
		"id":           input.ID,
		"name":         input.Name,
		"slug":         slug,
		"about":        input.About,
		"description":  input.Description,
		"groupType":    string(input.GroupType),
		"actionRadius": string(input.ActionRadius),
	}

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, fmt.Sprintf(createGroupQuery, categoriesFragment), map[string]any{
			"props":       props,
			"userId":      actorID,
			"categoryIds": input.CategoryIDs,
		})
		if err != nil {
			return nil, err
		}
		projection, ok := firstProjection(records, "group")
		if !ok {
			return nil, domainerrors.NotFoundf("user %s not found", actorID)
		}
		return projection, nil
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelGroup)
	}

	group := domain.GroupFromProps(out.(map[string]any))
	r.logger.Info("group created", "group_id", group.ID, "slug", group.Slug, "owner_id", actorID)
	return group, nil
}

// UpdateGroupInput carries the arguments of the UpdateGroup operation. Nil
// fields leave the stored value untouched; a nil CategoryIDs slice keeps the
// existing category associations.
type UpdateGroupInput struct {
	ID           string               `json:"id" validate:"required"`
	Name         *string              `json:"name,omitempty"`
	Slug         *string              `json:"slug,omitempty"`
	About        *string              `json:"about,omitempty"`
	Description  *string              `json:"description,omitempty"`
	GroupType    *domain.GroupType    `json:"groupType,omitempty" validate:"omitempty,oneof=public closed hidden"`
	ActionRadius *domain.ActionRadius `json:"actionRadius,omitempty" validate:"omitempty,oneof=regional national continental global interplanetary"`
	CategoryIDs  []string             `json:"categoryIds,omitempty"`
	Avatar       *domain.ImageInput   `json:"avatar,omitempty"`
}

const deleteGroupCategoriesQuery = `
MATCH (group:Group {id: $groupId})-[previousRelations:CATEGORIZED]->(category:Category)
DELETE previousRelations
RETURN group, category
`

const updateGroupQueryHead = `
MATCH (group:Group {id: $groupId})
SET group += $props
SET group.updatedAt = toString(datetime())
WITH group
`

const updateGroupCategoriesFragment = `
UNWIND $categoryIds AS categoryId
MATCH (category:Category {id: categoryId})
MERGE (group)-[:CATEGORIZED]->(category)
WITH group
`

const updateGroupQueryTail = `
OPTIONAL MATCH (:User {id: $userId})-[membership:MEMBER_OF]->(group)
RETURN group {.*, myRole: membership.role}
`

// UpdateGroup applies a sparse update to a group.
//
// When category ids are supplied the existing CATEGORIZED edges are deleted in
// a first transaction and the new set merged in a second, both on the same
// session and therefore in program order. The actor's role is looked up
// optionally: a non-member may update when authorized upstream. A supplied
// avatar is merged through the image collaborator inside the update
// transaction.
func (r *Groups) UpdateGroup(ctx context.Context, input UpdateGroupInput) (*domain.Group, error) {
	actorID, ok := ActorID(ctx)
	if !ok {
		return nil, domainerrors.Unauthorized("not authenticated")
	}

	if err := r.validate.Validate(input); err != nil {
		return nil, err
	}
	if input.CategoryIDs != nil {
		if err := r.validateCategoryCount(input.CategoryIDs, false); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		if err := r.validateDescription(*input.Description); err != nil {
			return nil, err
		}
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
	if input.Description != nil {
		props["description"] = *input.Description
	}
	if input.GroupType != nil {
		props["groupType"] = string(*input.GroupType)
	}
	if input.ActionRadius != nil {
		props["actionRadius"] = string(*input.ActionRadius)
	}

	replaceCategories := r.categories.Active && len(input.CategoryIDs) > 0

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	// Existing category edges are replaced wholesale: delete first, merge the
	// new set with the update.
	if replaceCategories {
		_, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
			return tx.Run(ctx, deleteGroupCategoriesQuery, map[string]any{"groupId": input.ID})
		})
		if err != nil {
			return nil, translateErr(err, graph.LabelGroup)
		}
	}

	query := updateGroupQueryHead
	if replaceCategories {
		query += updateGroupCategoriesFragment
	}
	query += updateGroupQueryTail

	out, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{
			"groupId":     input.ID,
			"userId":      actorID,
			"categoryIds": input.CategoryIDs,
			"props":       props,
		})
		if err != nil {
			return nil, err
		}
		projection, ok := firstProjection(records, "group")
		if !ok {
			return nil, domainerrors.NotFoundf("Group %s not found", input.ID)
		}
		if input.Avatar != nil {
			if err := r.images.MergeGroupAvatar(ctx, tx, input.ID, input.Avatar); err != nil {
				return nil, err
			}
		}
		return projection, nil
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelGroup)
	}

	group := domain.GroupFromProps(out.(map[string]any))
	r.logger.Info("group updated", "group_id", group.ID, "actor_id", actorID)
	return group, nil
}

// resolveUpdateSlug decides whether the update changes the slug. An explicit
// slug equal to the current one is a no-op; a different explicit slug goes
// through the allocator's reject-on-conflict path; a new name without an
// explicit slug re-derives with suffix probing. Returns "" when the slug is
// unchanged.
func (r *Groups) resolveUpdateSlug(ctx context.Context, input UpdateGroupInput) (string, error) {
	if input.Slug == nil && input.Name == nil {
		return "", nil
	}

	current, err := currentSlug(ctx, r.driver, graph.LabelGroup, input.ID)
	if err != nil {
		return "", err
	}

	if input.Slug != nil {
		if *input.Slug == current {
			return "", nil
		}
		return r.slugs.Allocate(ctx, graph.LabelGroup, "", *input.Slug)
	}

	if slugify.Derive(*input.Name) == current {
		return "", nil
	}
	return r.slugs.Allocate(ctx, graph.LabelGroup, *input.Name, "")
}

const joinGroupQuery = `
MATCH (member:User {id: $userId}), (group:Group {id: $groupId})
MERGE (member)-[membership:MEMBER_OF]->(group)
ON CREATE SET
  membership.createdAt = toString(datetime()),
  membership.updatedAt = null,
  membership.role =
    CASE WHEN group.groupType = 'public'
      THEN 'usual'
      ELSE 'pending'
      END
RETURN member {.*, myRoleInGroup: membership.role}
`

// JoinGroup upserts a membership between the user and the group.
//
// The role is set on creation only: usual for public groups, pending
// otherwise. Joining a group the user already belongs to is a no-op that
// leaves the existing role untouched.
func (r *Groups) JoinGroup(ctx context.Context, groupID, userID string) (*domain.Member, error) {
	return r.runMemberWrite(ctx, joinGroupQuery, map[string]any{
		"groupId": groupID,
		"userId":  userID,
	})
}

const changeGroupMemberRoleQuery = `
MATCH (member:User {id: $userId}), (group:Group {id: $groupId})
MERGE (member)-[membership:MEMBER_OF]->(group)
ON CREATE SET
  membership.createdAt = toString(datetime()),
  membership.updatedAt = null,
  membership.role = $roleInGroup
ON MATCH SET
  membership.updatedAt = toString(datetime()),
  membership.role = $roleInGroup
RETURN member {.*, myRoleInGroup: membership.role}
`

// ChangeGroupMemberRole sets the user's role in the group, creating the
// membership when absent. Unlike JoinGroup this always takes effect.
func (r *Groups) ChangeGroupMemberRole(ctx context.Context, groupID, userID string, role domain.Role) (*domain.Member, error) {
	if !role.Valid() {
		return nil, domainerrors.Validationf("invalid role %q", role)
	}
	return r.runMemberWrite(ctx, changeGroupMemberRoleQuery, map[string]any{
		"groupId":     groupID,
		"userId":      userID,
		"roleInGroup": string(role),
	})
}

const memberRoleQuery = `
MATCH (member:User {id: $userId}), (group:Group {id: $groupId})
OPTIONAL MATCH (member)-[membership:MEMBER_OF]->(group)
RETURN member {.*}, membership.role AS role
`

const removeMembershipQuery = `
MATCH (member:User {id: $userId})-[membership:MEMBER_OF]->(group:Group {id: $groupId})
DELETE membership
`

// LeaveGroup removes the user's membership. The owner cannot leave: the group
// must keep its single ownership edge. Leaving a group the user is not a
// member of is a no-op.
func (r *Groups) LeaveGroup(ctx context.Context, groupID, userID string) (*domain.Member, error) {
	return r.removeMembership(ctx, groupID, userID)
}

// RemoveUserFromGroup removes another user's membership, with the same owner
// protection as LeaveGroup. Authorization of the acting user happens upstream.
func (r *Groups) RemoveUserFromGroup(ctx context.Context, groupID, userID string) (*domain.Member, error) {
	return r.removeMembership(ctx, groupID, userID)
}

func (r *Groups) removeMembership(ctx context.Context, groupID, userID string) (*domain.Member, error) {
	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, memberRoleQuery, map[string]any{
			"groupId": groupID,
			"userId":  userID,
		})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, domainerrors.NotFound("group or user not found")
		}

		projection, _ := records[0]["member"].(map[string]any)
		if role, _ := records[0]["role"].(string); domain.Role(role) == domain.RoleOwner {
			return nil, domainerrors.Validation("the owner cannot be removed from the group")
		}

		if _, err := tx.Run(ctx, removeMembershipQuery, map[string]any{
			"groupId": groupID,
			"userId":  userID,
		}); err != nil {
			return nil, err
		}
		return projection, nil
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelGroup)
	}

	props, _ := out.(map[string]any)
	member := &domain.Member{User: *domain.UserFromProps(props)}
	r.logger.Info("membership removed", "group_id", groupID, "user_id", userID)
	return member, nil
}

// runMemberWrite executes a single-statement membership write and maps the
// returned member projection.
func (r *Groups) runMemberWrite(ctx context.Context, query string, params map[string]any) (*domain.Member, error) {
	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		projection, ok := firstProjection(records, "member")
		if !ok {
			return nil, domainerrors.NotFound("group or user not found")
		}
		return projection, nil
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelGroup)
	}

	return domain.MemberFromProps(out.(map[string]any)), nil
}

// GroupFilter selects groups by optional attributes. Nil fields are omitted
// from the match, never compared against null.
type GroupFilter struct {
	ID   *string
	Slug *string
	// IsMember selects the visibility branch: true restricts to groups the
	// actor belongs to, false to groups the actor does not belong to, nil
	// returns all matches the actor may see.
	IsMember *bool
}

const groupsMemberQuery = `
MATCH (:User {id: $userId})-[membership:MEMBER_OF]->(group:Group%s)
WITH group, membership
WHERE (group.groupType IN ['public', 'closed']) OR (group.groupType = 'hidden' AND membership.role IN ['usual', 'admin', 'owner'])
RETURN group {.*, myRole: membership.role}
`

const groupsNonMemberQuery = `
MATCH (group:Group%s)
WHERE (NOT (:User {id: $userId})-[:MEMBER_OF]->(group))
WITH group
WHERE group.groupType IN ['public', 'closed']
RETURN group {.*, myRole: NULL}
`

const groupsAllQuery = `
MATCH (group:Group%s)
OPTIONAL MATCH (:User {id: $userId})-[membership:MEMBER_OF]->(group)
WITH group, membership
WHERE (group.groupType IN ['public', 'closed']) OR (group.groupType = 'hidden' AND membership.role IN ['usual', 'admin', 'owner'])
RETURN group {.*, myRole: membership.role}
`

// Groups returns the groups matching the filter, each annotated with the
// acting user's role (nil when not a member). Hidden groups are visible only
// to accepted members; with IsMember=false they are never returned.
func (r *Groups) Groups(ctx context.Context, filter GroupFilter) ([]*domain.Group, error) {
	actorID, ok := ActorID(ctx)
	if !ok {
		return nil, domainerrors.Unauthorized("not authenticated")
	}

	match := graph.NewMatchFilter().
		SetString("id", filter.ID).
		SetString("slug", filter.Slug)

	var query string
	switch {
	case filter.IsMember != nil && *filter.IsMember:
		query = groupsMemberQuery
	case filter.IsMember != nil:
		query = groupsNonMemberQuery
	default:
		query = groupsAllQuery
	}
	query = fmt.Sprintf(query, match.Fragment())

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		return tx.Run(ctx, query, mergeParams(match.Params(), map[string]any{"userId": actorID}))
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelGroup)
	}

	records, _ := out.([]graph.Record)
	groups := make([]*domain.Group, 0, len(records))
	for _, record := range records {
		if props, ok := record["group"].(map[string]any); ok {
			groups = append(groups, domain.GroupFromProps(props))
		}
	}
	return groups, nil
}

const groupMembersQuery = `
MATCH (user:User)-[membership:MEMBER_OF]->(:Group {id: $groupId})
RETURN user {.*, myRoleInGroup: membership.role}
`

// GroupMembers returns every user holding a membership in the group, each
// annotated with their role. An unknown group yields an empty result.
func (r *Groups) GroupMembers(ctx context.Context, groupID string) ([]*domain.Member, error) {
	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		return tx.Run(ctx, groupMembersQuery, map[string]any{"groupId": groupID})
	})
	if err != nil {
		return nil, translateErr(err, graph.LabelGroup)
	}

	records, _ := out.([]graph.Record)
	members := make([]*domain.Member, 0, len(records))
	for _, record := range records {
		if props, ok := record["user"].(map[string]any); ok {
			members = append(members, domain.MemberFromProps(props))
		}
	}
	return members, nil
}

const groupCountQuery = `
MATCH (group:Group)
OPTIONAL MATCH (:User {id: $userId})-[membership:MEMBER_OF]->(group)
WITH group, membership
WHERE (group.groupType IN ['public', 'closed']) OR (group.groupType = 'hidden' AND membership.role IN ['usual', 'admin', 'owner'])
RETURN count(group) AS count
`

// GroupCount returns the number of groups visible to the acting user, under
// the same visibility rule as the unrestricted Groups query.
func (r *Groups) GroupCount(ctx context.Context) (int64, error) {
	actorID, ok := ActorID(ctx)
	if !ok {
		return 0, domainerrors.Unauthorized("not authenticated")
	}

	session := r.driver.NewSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(ctx context.Context, tx graph.Tx) (any, error) {
		records, err := tx.Run(ctx, groupCountQuery, map[string]any{"userId": actorID})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return int64(0), nil
		}
		count, _ := records[0]["count"].(int64)
		return count, nil
	})
	if err != nil {
		return 0, translateErr(err, graph.LabelGroup)
	}

	count, _ := out.(int64)
	return count, nil
}

// validateCategoryCount enforces the configured category bounds. On create a
// missing list violates the minimum; on update the caller only passes a list
// that was actually supplied.
func (r *Groups) validateCategoryCount(categoryIDs []string, requirePresent bool) error {
	if !r.categories.Active {
		return nil
	}
	if requirePresent && categoryIDs == nil {
		return domainerrors.Validation("Too few categories!")
	}
	if len(categoryIDs) < r.categories.Min {
		return domainerrors.Validation("Too few categories!")
	}
	if len(categoryIDs) > r.categories.Max {
		return domainerrors.Validation("Too many categories!")
	}
	return nil
}

// validateDescription enforces the minimum plain-text description length
// after markup stripping.
func (r *Groups) validateDescription(description string) error {
	if htmltext.PlainLength(description) < r.groups.DescriptionMinLength {
		return domainerrors.Validation("Description too short!")
	}
	return nil
}
