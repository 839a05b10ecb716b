package server

import (
	"time"

	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UserResponse is the authenticated user together with a usable token.
type UserResponse struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type userEnvelope struct {
	User UserResponse `json:"user"`
}

func userResponse(user *models.User, token string) userEnvelope {
	return userEnvelope{User: UserResponse{
		Email:    user.Email,
		Token:    token,
		Username: user.Username,
		Bio:      user.Bio,
		Image:    user.Image,
	}}
}

type registerRequest struct {
	User struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type loginRequest struct {
	User struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

// Register handles POST /api/users
// @Summary Register
// @Description Create an account and return it with an access token
// @Tags users
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration"
// @Success 201 {object} userEnvelope
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	user, err := s.users.Register(c.UserContext(), service.RegisterInput{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return respondError(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "user registered", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(userResponse(user, token))
}

// Login handles POST /api/users/login
// @Summary Login
// @Description Authenticate with email and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} userEnvelope
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	if req.User.Email == "" || req.User.Password == "" {
		return respondError(c, models.NewValidationError("Email and password are required"))
	}

	user, err := s.users.Login(c.UserContext(), req.User.Email, req.User.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(userResponse(user, token))
}

// Logout handles POST /api/users/logout. The presented token is revoked until
// it would have expired.
// @Summary Logout
// @Tags users
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	tokenID, _ := c.Locals(middleware.LocalTokenID).(string)
	expiresAt, _ := c.Locals(middleware.LocalTokenExpiry).(time.Time)

	if !s.revocations.Enabled() {
		middleware.Logger.WarnContext(c.UserContext(), "logout without revocation store; token stays valid until expiry")
	} else if err := s.revocations.Revoke(c.UserContext(), tokenID, expiresAt); err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
