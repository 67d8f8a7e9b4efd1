package server

import (
	"bookforum/internal/models"
	"bookforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyForums handles GET /api/forums
// @Summary List own forums
// @Description List the forums the authenticated user belongs to
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=[]models.Forum}
// @Router /forums [get]
func (s *Server) GetMyForums(c *fiber.Ctx) error {
	forums, err := s.forumRepo.ListForumsForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Forums retrieved", forums)
}

// CreateForum handles POST /api/forums
// @Summary Create a forum
// @Description Create a forum with the caller as its sole admin
// @Tags forums
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,location=string,description=string} true "Forum to create"
// @Success 201 {object} SuccessResponse{data=models.Forum}
// @Failure 400 {object} models.ErrorResponse
// @Router /forums [post]
func (s *Server) CreateForum(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Location    string `json:"location"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody)
	}

	forum, err := s.membership.CreateForum(c.UserContext(), currentUserID(c), req.Name, req.Location, req.Description)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusCreated, "Forum created", forum)
}

// JoinForum handles POST /api/forums/join
// @Summary Join a forum by invite code
// @Tags forums
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{invite_code=string} true "Invite code"
// @Success 200 {object} SuccessResponse{data=models.Forum}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/join [post]
func (s *Server) JoinForum(c *fiber.Ctx) error {
	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody)
	}

	forum, err := s.membership.JoinForum(c.UserContext(), currentUserID(c), req.InviteCode)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Joined forum", forum)
}

// GetForumDetails handles GET /api/forums/:forumId
// @Summary Get forum details
// @Description Get forum, roster and aggregated member books; admin-only fields for admins
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Success 200 {object} SuccessResponse{data=service.ForumDetails}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId} [get]
func (s *Server) GetForumDetails(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}

	details, svcErr := s.membership.ForumDetails(c.UserContext(), forumID, currentUserID(c))
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return respondSuccess(c, fiber.StatusOK, "Forum retrieved", details)
}

// EditForum handles PATCH /api/forums/:forumId
// @Summary Edit a forum
// @Description Partially update forum fields; admin only
// @Tags forums
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Param request body service.ForumPatch true "Fields to update"
// @Success 200 {object} SuccessResponse{data=models.Forum}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId} [patch]
func (s *Server) EditForum(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}

	var patch service.ForumPatch
	if err := c.BodyParser(&patch); err != nil {
		return respondServiceError(c, errInvalidBody)
	}

	forum, svcErr := s.membership.EditForum(c.UserContext(), forumID, currentUserID(c), patch)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return respondSuccess(c, fiber.StatusOK, "Forum updated", forum)
}

// DeleteForum handles DELETE /api/forums/:forumId
// @Summary Delete a forum
// @Description Delete the forum and all of its memberships; admin only
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId} [delete]
func (s *Server) DeleteForum(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}

	if err := s.membership.DeleteForum(c.UserContext(), forumID, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Forum deleted", nil)
}

// LeaveForum handles DELETE /api/forums/:forumId/leave
// @Summary Leave a forum
// @Description Leave the forum; the last member leaving deletes it
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId}/leave [delete]
func (s *Server) LeaveForum(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}

	if err := s.membership.LeaveForum(c.UserContext(), forumID, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Left forum", nil)
}

// RegenerateInviteCode handles POST /api/forums/:forumId/invite-code
// @Summary Regenerate a forum's invite code
// @Description Replace the invite code; the old code stops working; admin only
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Success 200 {object} SuccessResponse{data=object{invite_code=string}}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId}/invite-code [post]
func (s *Server) RegenerateInviteCode(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}

	code, svcErr := s.membership.RegenerateInviteCode(c.UserContext(), forumID, currentUserID(c))
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return respondSuccess(c, fiber.StatusOK, "Invite code regenerated", fiber.Map{
		"invite_code": code,
	})
}

// GetMemberDetails handles GET /api/forums/:forumId/users/:userId
// @Summary Get a forum member's details
// @Description Get a member and their books visible in this forum
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Param userId path int true "User ID"
// @Success 200 {object} SuccessResponse{data=service.MemberDetails}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId}/users/{userId} [get]
func (s *Server) GetMemberDetails(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	details, svcErr := s.membership.MemberDetails(c.UserContext(), forumID, currentUserID(c), userID)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return respondSuccess(c, fiber.StatusOK, "Member retrieved", details)
}

// PromoteMember handles PATCH /api/forums/:forumId/users/:userId
// @Summary Promote a member to admin
// @Description Grant the admin role to a member; admin only
// @Tags forums
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Param userId path int true "User ID"
// @Param request body object{role=string} true "New role (only \"admin\" is accepted)"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId}/users/{userId} [patch]
func (s *Server) PromoteMember(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody)
	}
	// Demotion is not supported; roles only move upward.
	if req.Role != string(models.ForumRoleAdmin) {
		return respondServiceError(c, models.NewValidationError("Role must be \"admin\""))
	}

	if err := s.membership.PromoteToAdmin(c.UserContext(), forumID, currentUserID(c), userID); err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Member promoted", nil)
}

// RemoveMember handles DELETE /api/forums/:forumId/users/:userId
// @Summary Remove a member from a forum
// @Description Remove another member; admin only; use leave for yourself
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Param userId path int true "User ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId}/users/{userId} [delete]
func (s *Server) RemoveMember(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.membership.RemoveMember(c.UserContext(), forumID, currentUserID(c), userID); err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Member removed", nil)
}

// HideBook handles PATCH /api/forums/:forumId/books/:bookId/hide
// @Summary Hide a book in a forum
// @Description Exclude a book from the forum's aggregated list; admin only
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Param bookId path int true "Book ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId}/books/{bookId}/hide [patch]
func (s *Server) HideBook(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}

	if err := s.membership.HideBook(c.UserContext(), forumID, currentUserID(c), bookID); err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Book hidden", nil)
}

// UnhideBook handles PATCH /api/forums/:forumId/books/:bookId/unhide
// @Summary Unhide a book in a forum
// @Description Restore a hidden book to the forum's aggregated list; admin only
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param forumId path int true "Forum ID"
// @Param bookId path int true "Book ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /forums/{forumId}/books/{bookId}/unhide [patch]
func (s *Server) UnhideBook(c *fiber.Ctx) error {
	forumID, err := s.parseID(c, "forumId")
	if err != nil {
		return nil
	}
	bookID, err := s.parseID(c, "bookId")
	if err != nil {
		return nil
	}

	if err := s.membership.UnhideBook(c.UserContext(), forumID, currentUserID(c), bookID); err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Book unhidden", nil)
}
