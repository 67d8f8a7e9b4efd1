package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMyBooks handles GET /api/books
// @Summary List own books
// @Description List the authenticated user's book collection
// @Tags books
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=[]models.Book}
// @Router /books [get]
func (s *Server) GetMyBooks(c *fiber.Ctx) error {
	books, err := s.bookRepo.ListOwnedByUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Books retrieved", books)
}

// AddBook handles POST /api/books
// @Summary Add a book to own collection
// @Description Add a book; matching titles and authors share one catalog record
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,author=string,genre=string} true "Book to add"
// @Success 201 {object} SuccessResponse{data=models.Book}
// @Failure 400 {object} models.ErrorResponse
// @Router /books [post]
func (s *Server) AddBook(c *fiber.Ctx) error {
	var req struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Genre  string `json:"genre"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody)
	}

	book, err := s.bookService.AddOwnedBook(c.UserContext(), currentUserID(c), req.Title, req.Author, req.Genre)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusCreated, "Book added", book)
}

// EditBook handles PATCH /api/books/:bookId
// @Summary Edit a book in own collection
// @Description Rename a book; renaming onto an existing record merges the two
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookId path int true "Book ID"
// @Param request body object{title=string,author=string,genre=string} true "New book fields"
// @Success 200 {object} SuccessResponse{data=models.Book}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /books/{bookId} [patch]
func (s *Server) EditBook(c *fiber.Ctx) error {
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}

	var req struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Genre  string `json:"genre"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody)
	}

	book, svcErr := s.bookService.EditOwnedBook(c.UserContext(), currentUserID(c), bookID, req.Title, req.Author, req.Genre)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return respondSuccess(c, fiber.StatusOK, "Book updated", book)
}

// RemoveBook handles DELETE /api/books/:bookId
// @Summary Remove a book from own collection
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param bookId path int true "Book ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /books/{bookId} [delete]
func (s *Server) RemoveBook(c *fiber.Ctx) error {
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}

	if err := s.bookService.RemoveOwnedBook(c.UserContext(), currentUserID(c), bookID); err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Book removed", nil)
}
