package server

import (
	"conduit/internal/models"

	"github.com/gofiber/fiber/v2"
)

type profileEnvelope struct {
	Profile models.ProfileView `json:"profile"`
}

type profileDetailEnvelope struct {
	Profile models.ProfileDetailView `json:"profile"`
}

// GetProfile handles GET /api/profiles/:username
// @Summary Get profile
// @Description Following is relative to the caller; anonymous callers see false
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} profileDetailEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewer, err := s.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := s.profiles.GetProfile(ctx, c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	view, err := s.views.ProfileDetail(ctx, viewer, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profileDetailEnvelope{Profile: view})
}

// FollowUser handles POST /api/profiles/:username/follow
// @Summary Follow user
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} profileEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	target, err := s.profiles.Follow(c.UserContext(), actor, c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return s.writeProfile(c, actor, target)
}

// UnfollowUser handles DELETE /api/profiles/:username/follow
// @Summary Unfollow user
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} profileEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	target, err := s.profiles.Unfollow(c.UserContext(), actor, c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return s.writeProfile(c, actor, target)
}

func (s *Server) writeProfile(c *fiber.Ctx, viewer, user *models.User) error {
	view, err := s.views.Profile(c.UserContext(), viewer, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profileEnvelope{Profile: view})
}
