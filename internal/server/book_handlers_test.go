package server

import (
	"fmt"
	"net/http"
	"testing"

	"bookforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestAddAndListBooks(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	user := createHandlerTestUser(t, db, "jane")
	app := newTestApp(s, user.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/books/", fiber.Map{
		"title":  "Solaris",
		"author": "Stanislaw Lem",
		"genre":  "sf",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	data := dataField(t, decodeBody(t, resp))
	if data["title"] != "Solaris" {
		t.Fatalf("unexpected book: %v", data)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/books/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	list, ok := body["data"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected one book in the list, got %v", body["data"])
	}
}

func TestAddBookValidation(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	user := createHandlerTestUser(t, db, "kyle")
	app := newTestApp(s, user.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/books/", fiber.Map{"title": "  ", "author": "A"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestEditBookMergesOntoExistingRecord(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	user := createHandlerTestUser(t, db, "lena")
	other := createHandlerTestUser(t, db, "milo")
	app := newTestApp(s, user.ID)
	otherApp := newTestApp(s, other.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/books/", fiber.Map{"title": "Draft", "author": "Writer"})
	mine := dataField(t, decodeBody(t, resp))
	resp = doJSON(t, otherApp, http.MethodPost, "/api/books/", fiber.Map{"title": "Canonical", "author": "Writer"})
	theirs := dataField(t, decodeBody(t, resp))

	resp = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/books/%v", mine["id"]), fiber.Map{
		"title":  "canonical",
		"author": "writer",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	merged := dataField(t, decodeBody(t, resp))
	if merged["id"] != theirs["id"] {
		t.Fatalf("expected merge onto existing record %v, got %v", theirs["id"], merged["id"])
	}

	var count int64
	if err := db.Model(&models.Book{}).Count(&count).Error; err != nil {
		t.Fatalf("count books: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single surviving book record, got %d", count)
	}
}

func TestEditBookRequiresOwnership(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	owner := createHandlerTestUser(t, db, "nate")
	intruder := createHandlerTestUser(t, db, "olive")
	ownerApp := newTestApp(s, owner.ID)
	intruderApp := newTestApp(s, intruder.ID)

	resp := doJSON(t, ownerApp, http.MethodPost, "/api/books/", fiber.Map{"title": "Mine", "author": "Me"})
	book := dataField(t, decodeBody(t, resp))

	resp = doJSON(t, intruderApp, http.MethodPatch, fmt.Sprintf("/api/books/%v", book["id"]), fiber.Map{
		"title":  "Stolen",
		"author": "Me",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestRemoveBook(t *testing.T) {
	t.Parallel()

	db := setupHandlerTestDB(t)
	s := newTestServer(t, db, nil)
	user := createHandlerTestUser(t, db, "pia")
	app := newTestApp(s, user.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/books/", fiber.Map{"title": "Ephemeral", "author": "Gone"})
	book := dataField(t, decodeBody(t, resp))

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/books/%v", book["id"]), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// removing it again is a 404
	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/books/%v", book["id"]), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}
