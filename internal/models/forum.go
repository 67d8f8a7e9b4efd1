package models

import "time"

// ForumRole defines a member's role in a forum.
type ForumRole string

const (
	// ForumRoleAdmin can edit the forum, curate books, and manage members.
	ForumRoleAdmin ForumRole = "admin"
	// ForumRoleMember is the default role for joined users.
	ForumRoleMember ForumRole = "member"
)

// Forum is a local reading group whose members share visibility into each
// other's book collections.
type Forum struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:120;not null" json:"name"`
	Location       string    `gorm:"size:120;not null" json:"location"`
	Description    string    `gorm:"type:text" json:"description"`
	MessengerLink  string    `gorm:"size:300" json:"messenger_link,omitempty"`
	InviteCode     string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	FeaturedBookID *uint     `json:"featured_book_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ForumMembership is the user↔forum relation. The composite primary key
// guarantees a (forum, user) pair exists at most once; every forum with at
// least one row must have at least one admin row between transactions.
type ForumMembership struct {
	ForumID   uint      `gorm:"primaryKey;autoIncrement:false" json:"forum_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Role      ForumRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HiddenForumBook marks a book as hidden from a forum's aggregated list.
// Entries are not pruned when a book's last owner leaves the forum; only
// account deletion removes entries, and only for books it deletes.
type HiddenForumBook struct {
	ForumID   uint      `gorm:"primaryKey;autoIncrement:false" json:"forum_id"`
	BookID    uint      `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}
