package domain

import "time"

// User is a person node in the social graph. Slug is unique among users.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	About     string    `json:"about,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserFromProps builds a User from a node projection returned by the store.
func UserFromProps(props map[string]any) *User {
	return &User{
		ID:        propString(props, "id"),
		Name:      propString(props, "name"),
		Slug:      propString(props, "slug"),
		About:     propString(props, "about"),
		CreatedAt: propTime(props, "createdAt"),
		UpdatedAt: propTime(props, "updatedAt"),
	}
}
