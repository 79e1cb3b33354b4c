package domain

import "time"

// Post is a content node in the social graph. Slug is unique among posts.
// Author is present when the projection included the WROTE edge.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Author    *User     `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostFromProps builds a Post from a node projection returned by the store.
func PostFromProps(props map[string]any) *Post {
	post := &Post{
		ID:        propString(props, "id"),
		Title:     propString(props, "title"),
		Slug:      propString(props, "slug"),
		Content:   propString(props, "content"),
		CreatedAt: propTime(props, "createdAt"),
		UpdatedAt: propTime(props, "updatedAt"),
	}
	if author, ok := props["author"].(map[string]any); ok {
		post.Author = UserFromProps(author)
	}
	return post
}
