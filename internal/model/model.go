// internal/model/model.go
//
// Core record types for the bloglist API.
// Defines:
//   - User: an account that owns posts.
//   - Post: a blog entry with likes, comments and a single owning user.
//   - OwnerRef: the post→user reference, serialized either as the bare owner
//     id or as an expanded summary.
//   - ID helpers: every backend uses 24-char hex ObjectIDs.

package model

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account.
type User struct {
	ID           string   // hex ObjectID assigned by the store
	Username     string   // unique
	Name         string   // display name
	PasswordHash string   // bcrypt hash, never serialized
	Posts        []string // ids of owned posts, in creation order
}

// Summary returns the public owner summary for u.
func (u User) Summary() *UserSummary {
	return &UserSummary{Username: u.Username, Name: u.Name, ID: u.ID}
}

// UserSummary is the expanded form of a post's owner.
type UserSummary struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	ID       string `json:"id"`
}

// Post is a single blog entry.
type Post struct {
	ID       string
	Title    string
	Author   string
	URL      string
	Likes    int
	Comments []string
	UserID   string // owning user id; empty for unowned (seeded) posts
}

// PostSummary is the expanded form of a user's post reference.
type PostSummary struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ID     string `json:"id"`
}

// Summary returns the public post summary for p.
func (p Post) Summary() PostSummary {
	return PostSummary{URL: p.URL, Title: p.Title, Author: p.Author, ID: p.ID}
}

// PostPatch carries the fields of a partial update. Nil fields are left
// untouched.
type PostPatch struct {
	Title    *string   `json:"title"`
	Author   *string   `json:"author"`
	URL      *string   `json:"url"`
	Likes    *int      `json:"likes"`
	Comments *[]string `json:"comments"`
}

// Apply merges the non-nil fields of pp into p.
func (pp PostPatch) Apply(p *Post) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Author != nil {
		p.Author = *pp.Author
	}
	if pp.URL != nil {
		p.URL = *pp.URL
	}
	if pp.Likes != nil {
		p.Likes = *pp.Likes
	}
	if pp.Comments != nil {
		p.Comments = append([]string(nil), (*pp.Comments)...)
	}
}

// Empty reports whether pp changes nothing.
func (pp PostPatch) Empty() bool {
	return pp.Title == nil && pp.Author == nil && pp.URL == nil && pp.Likes == nil && pp.Comments == nil
}

// OwnerRef is how a post's owner appears in a response.
// With Summary set it renders as {username,name,id}; otherwise as the bare id
// string, or null when there is no owner.
type OwnerRef struct {
	ID      string
	Summary *UserSummary
}

// MarshalJSON implements json.Marshaler.
func (o OwnerRef) MarshalJSON() ([]byte, error) {
	switch {
	case o.Summary != nil:
		return json.Marshal(o.Summary)
	case o.ID != "":
		return json.Marshal(o.ID)
	default:
		return []byte("null"), nil
	}
}

// PostView is the JSON shape of a Post.
type PostView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	URL      string   `json:"url"`
	Likes    int      `json:"likes"`
	Comments []string `json:"comments"`
	User     OwnerRef `json:"user"`
}

// View renders p with the owner left as a bare id.
func (p Post) View() PostView {
	comments := p.Comments
	if comments == nil {
		comments = []string{}
	}
	return PostView{
		ID:       p.ID,
		Title:    p.Title,
		Author:   p.Author,
		URL:      p.URL,
		Likes:    p.Likes,
		Comments: comments,
		User:     OwnerRef{ID: p.UserID},
	}
}

// ViewWithOwner renders p with the owner expanded. A nil owner (unowned
// post, or a reference that no longer resolves) renders as null.
func (p Post) ViewWithOwner(owner *User) PostView {
	v := p.View()
	if owner == nil {
		v.User = OwnerRef{}
		return v
	}
	v.User.Summary = owner.Summary()
	return v
}

// NewID returns a fresh hex ObjectID.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed hex ObjectID.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
