// Package domain defines the entities of the groupmesh social graph.
package domain

import "time"

// GroupType controls who can see and join a group.
type GroupType string

const (
	// GroupTypePublic groups are visible to everyone and joinable without approval.
	GroupTypePublic GroupType = "public"
	// GroupTypeClosed groups are visible to everyone; joining requires approval.
	GroupTypeClosed GroupType = "closed"
	// GroupTypeHidden groups are visible to accepted members only.
	GroupTypeHidden GroupType = "hidden"
)

// Valid reports whether t is a known group type.
func (t GroupType) Valid() bool {
	switch t {
	case GroupTypePublic, GroupTypeClosed, GroupTypeHidden:
		return true
	}
	return false
}

// Role is a user's role within a group.
type Role string

const (
	// RolePending members have requested to join and await approval.
	RolePending Role = "pending"
	// RoleUsual members are accepted ordinary members.
	RoleUsual Role = "usual"
	// RoleAdmin members manage membership and content.
	RoleAdmin Role = "admin"
	// RoleOwner is the group creator. Exactly one per group.
	RoleOwner Role = "owner"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePending, RoleUsual, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// Accepted reports whether the role grants visibility into hidden groups.
func (r Role) Accepted() bool {
	switch r {
	case RoleUsual, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// ActionRadius is the geographic reach a group declares for itself.
type ActionRadius string

const (
	ActionRadiusRegional       ActionRadius = "regional"
	ActionRadiusNational       ActionRadius = "national"
	ActionRadiusContinental    ActionRadius = "continental"
	ActionRadiusGlobal         ActionRadius = "global"
	ActionRadiusInterplanetary ActionRadius = "interplanetary"
)

// Valid reports whether a is a known action radius.
func (a ActionRadius) Valid() bool {
	switch a {
	case ActionRadiusRegional, ActionRadiusNational, ActionRadiusContinental,
		ActionRadiusGlobal, ActionRadiusInterplanetary:
		return true
	}
	return false
}

// Group is a node in the social graph. Slug is unique among groups; timestamps
// are assigned by the store at write time.
type Group struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	About        string       `json:"about,omitempty"`
	Description  string       `json:"description"`
	GroupType    GroupType    `json:"groupType"`
	ActionRadius ActionRadius `json:"actionRadius"`
	// MyRole is the querying actor's role in this group, nil when the actor is
	// not a member.
	MyRole    *Role     `json:"myRole"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupFromProps builds a Group from a node projection returned by the store.
func GroupFromProps(props map[string]any) *Group {
	return &Group{
		ID:           propString(props, "id"),
		Name:         propString(props, "name"),
		Slug:         propString(props, "slug"),
		About:        propString(props, "about"),
		Description:  propString(props, "description"),
		GroupType:    GroupType(propString(props, "groupType")),
		ActionRadius: ActionRadius(propString(props, "actionRadius")),
		MyRole:       propRole(props, "myRole"),
		CreatedAt:    propTime(props, "createdAt"),
		UpdatedAt:    propTime(props, "updatedAt"),
	}
}

// Member is a user together with their role in a particular group.
type Member struct {
	User
	// Role is the membership role in the queried group.
	Role Role `json:"myRoleInGroup"`
}

// MemberFromProps builds a Member from a user projection carrying myRoleInGroup.
func MemberFromProps(props map[string]any) *Member {
	m := &Member{User: *UserFromProps(props)}
	if r := propRole(props, "myRoleInGroup"); r != nil {
		m.Role = *r
	}
	return m
}

// ImageInput references an uploaded image to attach as a group avatar. The
// merge itself is delegated to the image collaborator.
type ImageInput struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}
