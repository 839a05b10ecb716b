package server

import (
	"conduit/internal/middleware"
	"conduit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateUserRequest struct {
	User struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}

// GetCurrentUser handles GET /api/user
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} userEnvelope
// @Failure 401 {object} models.ErrorResponse
// @Router /user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	return c.JSON(userResponse(user, middleware.ExtractToken(c.Get(fiber.HeaderAuthorization))))
}

// UpdateCurrentUser handles PUT /api/user
// @Summary Update current user
// @Description Omitted fields keep their current value
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateUserRequest true "Fields to change"
// @Success 200 {object} userEnvelope
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /user [put]
func (s *Server) UpdateCurrentUser(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	var req updateUserRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	user, err := s.users.Update(c.UserContext(), actor, service.UpdateUserInput{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(userResponse(user, middleware.ExtractToken(c.Get(fiber.HeaderAuthorization))))
}
