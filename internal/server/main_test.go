package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookforum/internal/config"
	"bookforum/internal/models"
	"bookforum/internal/repository"
	"bookforum/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.OwnedBook{},
		&models.Forum{},
		&models.ForumMembership{},
		&models.HiddenForumBook{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

// newTestServer wires a Server directly so tests skip the metrics and
// Redis bootstrap that NewServerWithDeps performs.
func newTestServer(t *testing.T, db *gorm.DB, redisClient *redis.Client) *Server {
	t.Helper()

	userRepo := repository.NewUserRepository(db)
	s := &Server{
		config:    &config.Config{JWTSecret: "handler-test-secret-0123456789ab", Env: "test"},
		db:        db,
		redis:     redisClient,
		userRepo:  userRepo,
		bookRepo:  repository.NewBookRepository(db),
		forumRepo: repository.NewForumRepository(db),
	}
	s.userService = service.NewUserService(userRepo)
	s.bookService = service.NewBookService(db)
	s.membership = service.NewMembershipService(db)
	s.accounts = service.NewAccountService(db)
	return s
}

// newTestApp mounts the full route table with a stub auth middleware that
// injects userID, bypassing JWT parsing.
func newTestApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	api := app.Group("/api")

	protected := api.Group("", func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Patch("/me", s.UpdateMyProfile)
	users.Delete("/me", s.DeleteMyAccount)
	users.Get("/:id", s.GetUserProfile)

	books := protected.Group("/books")
	books.Get("/", s.GetMyBooks)
	books.Post("/", s.AddBook)
	books.Patch("/:bookId", s.EditBook)
	books.Delete("/:bookId", s.RemoveBook)

	forums := protected.Group("/forums")
	forums.Get("/", s.GetMyForums)
	forums.Post("/", s.CreateForum)
	forums.Post("/join", s.JoinForum)
	forums.Post("/:forumId/invite-code", s.RegenerateInviteCode)
	forums.Delete("/:forumId/leave", s.LeaveForum)
	forums.Get("/:forumId/users/:userId", s.GetMemberDetails)
	forums.Patch("/:forumId/users/:userId", s.PromoteMember)
	forums.Delete("/:forumId/users/:userId", s.RemoveMember)
	forums.Patch("/:forumId/books/:bookId/hide", s.HideBook)
	forums.Patch("/:forumId/books/:bookId/unhide", s.UnhideBook)
	forums.Get("/:forumId", s.GetForumDetails)
	forums.Patch("/:forumId", s.EditForum)
	forums.Delete("/:forumId", s.DeleteForum)

	return app
}

func createHandlerTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", Password: "hashed"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %q: %v", name, err)
	}
	return &user
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func dataField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	return data
}
