// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"time"

	"bookforum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumForums   int
	ShouldClean bool
	// SkipBcrypt stores the demo password in plaintext to speed up large runs.
	SkipBcrypt bool
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts}
}

var genres = []string{
	"fantasy", "science fiction", "mystery", "thriller", "romance",
	"historical fiction", "literary fiction", "horror", "biography",
	"poetry", "travel", "cooking", "philosophy", "history",
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:  gofakeit.Name(),
		Email: fmt.Sprintf("%d.%s", gofakeit.Number(100, 999), gofakeit.Email()),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildBookIdentity generates a plausible (title, author, genre) triple.
// Persisting it goes through the catalog service so duplicates collapse.
func (f *Factory) BuildBookIdentity() (title, author, genre string) {
	title = gofakeit.BookTitle()
	author = gofakeit.BookAuthor()
	genre = genres[gofakeit.Number(0, len(genres)-1)]
	return title, author, genre
}

// CreateForum constructs and persists a `models.Forum` without members.
// Callers that need a valid forum (at least one admin) should go through
// the membership service instead.
func (f *Factory) CreateForum(inviteCode string, overrides ...func(*models.Forum)) (*models.Forum, error) {
	forum := &models.Forum{
		Name:        fmt.Sprintf("%s %s Readers", gofakeit.City(), gofakeit.AdjectiveDescriptive()),
		Location:    gofakeit.City(),
		Description: gofakeit.Sentence(12),
		InviteCode:  inviteCode,
	}

	for _, override := range overrides {
		override(forum)
	}

	if err := f.db.Create(forum).Error; err != nil {
		return nil, err
	}
	return forum, nil
}

// ClearAll removes all seeded data. Postgres-only; relies on TRUNCATE CASCADE.
func (f *Factory) ClearAll() error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE hidden_forum_books, forum_memberships, forums, owned_books, books, users RESTART IDENTITY CASCADE;`
	return f.db.Exec(sql).Error
}
