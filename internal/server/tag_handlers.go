package server

import (
	"conduit/internal/models"

	"github.com/gofiber/fiber/v2"
)

type tagsEnvelope struct {
	Tags []string `json:"tags"`
}

type popularTagsEnvelope struct {
	Tags []models.TagCount `json:"tags"`
}

// ListTags handles GET /api/tags
// @Summary List tags
// @Description Every registered tag name, alphabetically
// @Tags tags
// @Produce json
// @Success 200 {object} tagsEnvelope
// @Router /tags [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	names, err := s.tags.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tagsEnvelope{Tags: names})
}

// PopularTags handles GET /api/tags/popular
// @Summary Popular tags
// @Description Tags ranked by how many articles use them
// @Tags tags
// @Produce json
// @Param limit query int false "Number of tags" default(10)
// @Success 200 {object} popularTagsEnvelope
// @Router /tags/popular [get]
func (s *Server) PopularTags(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	tags, err := s.tags.Popular(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(popularTagsEnvelope{Tags: tags})
}
