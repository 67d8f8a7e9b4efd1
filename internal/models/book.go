package models

import "time"

// Book is a catalog entry. Identity is logical: two books whose trimmed
// title and author compare equal case-insensitively are the same entity,
// so writes go through a lookup-or-create step rather than blind inserts.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Author    string    `gorm:"size:120;not null" json:"author"`
	Genre     string    `gorm:"size:60" json:"genre,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBook links a user to a book in their collection. A book referenced
// by no OwnedBook row is garbage and is removed by the cascade paths that
// check for it; there is no background sweep.
//
// Join rows deliberately carry no association fields so AutoMigrate does
// not install foreign keys: cascades are owned by service transactions.
type OwnedBook struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	BookID    uint      `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}
