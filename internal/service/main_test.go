package service

import (
	"context"
	"errors"
	"testing"

	"bookforum/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
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

func createTestUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", Password: "hash"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func createTestForum(t *testing.T, db *gorm.DB, adminID uint, name string) models.Forum {
	t.Helper()
	svc := NewMembershipService(db)
	forum, err := svc.CreateForum(context.Background(), adminID, name, "Springfield", "")
	if err != nil {
		t.Fatalf("create forum %s: %v", name, err)
	}
	return *forum
}

func addTestMember(t *testing.T, db *gorm.DB, forumID, userID uint) {
	t.Helper()
	m := models.ForumMembership{ForumID: forumID, UserID: userID, Role: models.ForumRoleMember}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("add member %d to forum %d: %v", userID, forumID, err)
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code, appErr)
	}
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
