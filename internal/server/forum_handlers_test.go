package server

import (
	"fmt"
	"net/http"
	"testing"

	"bookforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestCreateForumAndGetDetails(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "quinn")
	app := newTestApp(s, admin.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/forums/", fiber.Map{
		"name":     "Night Readers",
		"location": "Lisbon",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	forum := dataField(t, decodeBody(t, resp))
	forumID := forum["id"]

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/forums/%v", forumID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	details := dataField(t, decodeBody(t, resp))

	members, ok := details["members"].([]any)
	if !ok || len(members) != 1 {
		t.Fatalf("expected a one-member roster, got %v", details["members"])
	}
	// the creator is an admin and sees the invite code
	if details["invite_code"] == nil || details["invite_code"] == "" {
		t.Fatal("admin view should include the invite code")
	}
}

func TestForumDetailsForbiddenForOutsiders(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "rita")
	outsider := createHandlerTestUser(t, db, "sam")

	adminApp := newTestApp(s, admin.ID)
	outsiderApp := newTestApp(s, outsider.ID)

	resp := doJSON(t, adminApp, http.MethodPost, "/api/forums/", fiber.Map{"name": "Closed Circle", "location": "Springfield"})
	forum := dataField(t, decodeBody(t, resp))

	resp = doJSON(t, outsiderApp, http.MethodGet, fmt.Sprintf("/api/forums/%v", forum["id"]), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = doJSON(t, outsiderApp, http.MethodGet, "/api/forums/99999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing forum, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestJoinForumByInviteCode(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "tess")
	joiner := createHandlerTestUser(t, db, "umar")

	adminApp := newTestApp(s, admin.ID)
	joinerApp := newTestApp(s, joiner.ID)

	resp := doJSON(t, adminApp, http.MethodPost, "/api/forums/", fiber.Map{"name": "Open Door", "location": "Springfield"})
	forum := dataField(t, decodeBody(t, resp))

	var stored models.Forum
	if err := db.First(&stored, uint(forum["id"].(float64))).Error; err != nil {
		t.Fatalf("reload forum: %v", err)
	}

	resp = doJSON(t, joinerApp, http.MethodPost, "/api/forums/join", fiber.Map{
		"invite_code": stored.InviteCode,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// joining twice fails
	resp = doJSON(t, joinerApp, http.MethodPost, "/api/forums/join", fiber.Map{
		"invite_code": stored.InviteCode,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate join, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// a bogus code is a 404
	resp = doJSON(t, joinerApp, http.MethodPost, "/api/forums/join", fiber.Map{
		"invite_code": "no-such-code",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestRegenerateInviteCodeInvalidatesOldCode(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "vlad")
	joiner := createHandlerTestUser(t, db, "wren")

	adminApp := newTestApp(s, admin.ID)
	joinerApp := newTestApp(s, joiner.ID)

	resp := doJSON(t, adminApp, http.MethodPost, "/api/forums/", fiber.Map{"name": "Rotating", "location": "Springfield"})
	forum := dataField(t, decodeBody(t, resp))

	var stored models.Forum
	if err := db.First(&stored, uint(forum["id"].(float64))).Error; err != nil {
		t.Fatalf("reload forum: %v", err)
	}
	oldCode := stored.InviteCode

	resp = doJSON(t, adminApp, http.MethodPost, fmt.Sprintf("/api/forums/%v/invite-code", forum["id"]), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	data := dataField(t, decodeBody(t, resp))
	newCode, _ := data["invite_code"].(string)
	if newCode == "" || newCode == oldCode {
		t.Fatalf("expected a fresh invite code, got %q", newCode)
	}

	resp = doJSON(t, joinerApp, http.MethodPost, "/api/forums/join", fiber.Map{"invite_code": oldCode})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("old code should stop working, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = doJSON(t, joinerApp, http.MethodPost, "/api/forums/join", fiber.Map{"invite_code": newCode})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("new code should work, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestPromoteMemberAndLeave(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "xander")
	member := createHandlerTestUser(t, db, "yara")

	adminApp := newTestApp(s, admin.ID)
	memberApp := newTestApp(s, member.ID)

	resp := doJSON(t, adminApp, http.MethodPost, "/api/forums/", fiber.Map{"name": "Handover", "location": "Springfield"})
	forum := dataField(t, decodeBody(t, resp))
	forumID := forum["id"]

	var stored models.Forum
	if err := db.First(&stored, uint(forumID.(float64))).Error; err != nil {
		t.Fatalf("reload forum: %v", err)
	}
	resp = doJSON(t, memberApp, http.MethodPost, "/api/forums/join", fiber.Map{"invite_code": stored.InviteCode})
	_ = resp.Body.Close()

	// sole admin cannot leave yet
	resp = doJSON(t, adminApp, http.MethodDelete, fmt.Sprintf("/api/forums/%v/leave", forumID), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for sole admin leaving, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// a bad role value is rejected
	resp = doJSON(t, adminApp, http.MethodPatch,
		fmt.Sprintf("/api/forums/%v/users/%d", forumID, member.ID), fiber.Map{"role": "member"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported role, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = doJSON(t, adminApp, http.MethodPatch,
		fmt.Sprintf("/api/forums/%v/users/%d", forumID, member.ID), fiber.Map{"role": "admin"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for promotion, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// with a second admin in place the original admin can leave
	resp = doJSON(t, adminApp, http.MethodDelete, fmt.Sprintf("/api/forums/%v/leave", forumID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for leave, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	var count int64
	if err := db.Model(&models.ForumMembership{}).
		Where("forum_id = ?", uint(forumID.(float64))).Count(&count).Error; err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 remaining member, got %d", count)
	}
}

func TestRemoveMemberRules(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "zane")
	member := createHandlerTestUser(t, db, "abby")

	adminApp := newTestApp(s, admin.ID)
	memberApp := newTestApp(s, member.ID)

	resp := doJSON(t, adminApp, http.MethodPost, "/api/forums/", fiber.Map{"name": "Moderated", "location": "Springfield"})
	forum := dataField(t, decodeBody(t, resp))
	forumID := forum["id"]

	var stored models.Forum
	if err := db.First(&stored, uint(forumID.(float64))).Error; err != nil {
		t.Fatalf("reload forum: %v", err)
	}
	resp = doJSON(t, memberApp, http.MethodPost, "/api/forums/join", fiber.Map{"invite_code": stored.InviteCode})
	_ = resp.Body.Close()

	// members cannot remove others
	resp = doJSON(t, memberApp, http.MethodDelete,
		fmt.Sprintf("/api/forums/%v/users/%d", forumID, admin.ID), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin removal, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// admins cannot remove themselves through this route
	resp = doJSON(t, adminApp, http.MethodDelete,
		fmt.Sprintf("/api/forums/%v/users/%d", forumID, admin.ID), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for self-removal, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = doJSON(t, adminApp, http.MethodDelete,
		fmt.Sprintf("/api/forums/%v/users/%d", forumID, member.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for removal, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestHideAndUnhideBook(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "bess")
	app := newTestApp(s, admin.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/forums/", fiber.Map{"name": "Curated", "location": "Springfield"})
	forum := dataField(t, decodeBody(t, resp))
	forumID := forum["id"]

	resp = doJSON(t, app, http.MethodPost, "/api/books/", fiber.Map{"title": "Loud Cover", "author": "Anon"})
	book := dataField(t, decodeBody(t, resp))
	bookID := book["id"]

	hidePath := fmt.Sprintf("/api/forums/%v/books/%v/hide", forumID, bookID)
	unhidePath := fmt.Sprintf("/api/forums/%v/books/%v/unhide", forumID, bookID)

	resp = doJSON(t, app, http.MethodPatch, hidePath, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for hide, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// hiding twice is a conflict, not a no-op
	resp = doJSON(t, app, http.MethodPatch, hidePath, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for double hide, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// the hidden book is excluded from the forum's aggregated list
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/forums/%v", forumID), nil)
	details := dataField(t, decodeBody(t, resp))
	if books, ok := details["books"].([]any); ok && len(books) != 0 {
		t.Fatalf("hidden book still listed: %v", books)
	}

	resp = doJSON(t, app, http.MethodPatch, unhidePath, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for unhide, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPatch, unhidePath, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for double unhide, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestEditForumAdminOnly(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "cleo")
	member := createHandlerTestUser(t, db, "dino")

	adminApp := newTestApp(s, admin.ID)
	memberApp := newTestApp(s, member.ID)

	resp := doJSON(t, adminApp, http.MethodPost, "/api/forums/", fiber.Map{"name": "Before", "location": "Springfield"})
	forum := dataField(t, decodeBody(t, resp))
	forumID := forum["id"]

	var stored models.Forum
	if err := db.First(&stored, uint(forumID.(float64))).Error; err != nil {
		t.Fatalf("reload forum: %v", err)
	}
	resp = doJSON(t, memberApp, http.MethodPost, "/api/forums/join", fiber.Map{"invite_code": stored.InviteCode})
	_ = resp.Body.Close()

	resp = doJSON(t, memberApp, http.MethodPatch, fmt.Sprintf("/api/forums/%v", forumID),
		fiber.Map{"name": "Hijacked"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for member edit, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = doJSON(t, adminApp, http.MethodPatch, fmt.Sprintf("/api/forums/%v", forumID),
		fiber.Map{"name": "After", "description": "renamed"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin edit, got %d", resp.StatusCode)
	}
	data := dataField(t, decodeBody(t, resp))
	if data["name"] != "After" {
		t.Fatalf("name not updated: %v", data)
	}
}

func TestDeleteForum(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	admin := createHandlerTestUser(t, db, "esme")
	app := newTestApp(s, admin.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/forums/", fiber.Map{"name": "Short Lived", "location": "Springfield"})
	forum := dataField(t, decodeBody(t, resp))
	forumID := forum["id"]

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/forums/%v", forumID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	var count int64
	if err := db.Model(&models.Forum{}).Count(&count).Error; err != nil {
		t.Fatalf("count forums: %v", err)
	}
	if count != 0 {
		t.Fatal("forum row remains after delete")
	}
}
