package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"bookforum/internal/models"
	"bookforum/internal/service"

	"gorm.io/gorm"
)

// Seed populates the database with demo users, book collections and forums.
// Books and memberships are created through the services so the seeded data
// obeys the same rules as production traffic: shared catalog records for
// matching titles, one admin per forum at minimum, no duplicate members.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users and %d forums...", opts.NumUsers, opts.NumForums)

	factory := NewFactory(db, opts)
	if opts.ShouldClean {
		if err := factory.ClearAll(); err != nil {
			log.Println("Warning: could not clear existing data, continuing anyway...")
		}
	}

	users, err := createUsers(factory, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d users created", len(users))

	books := service.NewBookService(db)
	if err := createCollections(factory, books, users); err != nil {
		return fmt.Errorf("failed to create book collections: %w", err)
	}

	membership := service.NewMembershipService(db)
	forums, err := createForums(membership, users, opts.NumForums)
	if err != nil {
		return fmt.Errorf("failed to create forums: %w", err)
	}
	log.Printf("%d forums created", len(forums))

	log.Println("Seeding complete. All demo users have the password: password123")
	return nil
}

func createUsers(factory *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// A stable login for manual testing.
	demo, err := factory.CreateUser(func(u *models.User) {
		u.Name = "Demo Reader"
		u.Email = "demo@example.com"
	})
	if err == nil {
		users = append(users, demo)
	}

	for i := len(users); i < count; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

// createCollections gives every user a small shelf. Identities repeat across
// users on purpose so the catalog deduplication is visible in seeded data.
func createCollections(factory *Factory, books *service.BookService, users []*models.User) error {
	ctx := context.Background()

	// a shared pool so many users own the same titles
	type identity struct{ title, author, genre string }
	pool := make([]identity, 0, 40)
	for i := 0; i < 40; i++ {
		title, author, genre := factory.BuildBookIdentity()
		pool = append(pool, identity{title, author, genre})
	}

	for _, user := range users {
		shelfSize := rand.Intn(7) + 1
		for i := 0; i < shelfSize; i++ {
			pick := pool[rand.Intn(len(pool))]
			if _, err := books.AddOwnedBook(ctx, user.ID, pick.title, pick.author, pick.genre); err != nil {
				return err
			}
		}
	}
	return nil
}

func createForums(membership *service.MembershipService, users []*models.User, count int) ([]*models.Forum, error) {
	ctx := context.Background()
	forums := make([]*models.Forum, 0, count)

	for i := 0; i < count; i++ {
		creator := users[rand.Intn(len(users))]
		forum, err := membership.CreateForum(ctx, creator.ID,
			fmt.Sprintf("Reading Circle %d", i+1), "Springfield", "A seeded demo forum.")
		if err != nil {
			return nil, err
		}
		forums = append(forums, forum)

		// pull in a handful of members via the invite code
		memberCount := rand.Intn(8) + 2
		for j := 0; j < memberCount; j++ {
			joiner := users[rand.Intn(len(users))]
			if joiner.ID == creator.ID {
				continue
			}
			// duplicate joins fail validation; skip quietly
			_, _ = membership.JoinForum(ctx, joiner.ID, forum.InviteCode)
		}
	}
	return forums, nil
}
