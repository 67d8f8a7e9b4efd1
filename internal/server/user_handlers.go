package server

import (
	"bookforum/internal/middleware"
	"bookforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Get own profile
// @Description Get the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Profile retrieved", user)
}

// UpdateMyProfile handles PATCH /api/users/me
// @Summary Update own profile
// @Description Update the authenticated user's name and/or email
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,email=string} true "Fields to update"
// @Success 200 {object} SuccessResponse{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [patch]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondServiceError(c, errInvalidBody)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: currentUserID(c),
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondSuccess(c, fiber.StatusOK, "Profile updated", user)
}

// DeleteMyAccount handles DELETE /api/users/me
// @Summary Delete own account
// @Description Delete the account, cascading through memberships and owned books
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [delete]
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if err := s.accounts.DeleteAccount(c.UserContext(), userID); err != nil {
		return respondServiceError(c, err)
	}

	// The account is gone; the presented token must stop working immediately.
	s.revokePresentedToken(c)

	middleware.Logger.InfoContext(c.UserContext(), "account deleted", "user_id", userID)
	return respondSuccess(c, fiber.StatusOK, "Account deleted", nil)
}

// GetUserProfile handles GET /api/users/:id
// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} SuccessResponse{data=object{id=int,name=string}}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	// Public view: no email.
	return respondSuccess(c, fiber.StatusOK, "User retrieved", fiber.Map{
		"id":         user.ID,
		"name":       user.Name,
		"created_at": user.CreatedAt,
	})
}
