package server

import (
	"conduit/internal/models"
	"conduit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentEnvelope struct {
	Comment models.CommentView `json:"comment"`
}

type commentsEnvelope struct {
	Comments []models.CommentView `json:"comments"`
}

type createCommentRequest struct {
	Comment struct {
		Body string `json:"body"`
	} `json:"comment"`
}

// ListComments handles GET /api/articles/:slug/comments
// @Summary List comments
// @Tags comments
// @Produce json
// @Param slug path string true "Article slug"
// @Success 200 {object} commentsEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewer, err := s.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	comments, err := s.comments.ListByArticle(ctx, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	views, err := s.views.Comments(ctx, viewer, comments)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(commentsEnvelope{Comments: views})
}

// CreateComment handles POST /api/articles/:slug/comments
// @Summary Add comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Article slug"
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} commentEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /articles/{slug}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	comment, err := s.comments.Create(ctx, actor, service.CreateCommentInput{
		ArticleSlug: c.Params("slug"),
		Body:        req.Comment.Body,
	})
	if err != nil {
		return respondError(c, err)
	}
	view, err := s.views.Comment(ctx, actor, comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(commentEnvelope{Comment: view})
}

// DeleteComment handles DELETE /api/articles/:slug/comments/:id
// @Summary Delete comment
// @Description Only the comment's author may delete it
// @Tags comments
// @Security BearerAuth
// @Param slug path string true "Article slug"
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug}/comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.comments.Delete(c.UserContext(), actor, service.DeleteCommentInput{
		ArticleSlug: c.Params("slug"),
		CommentID:   id,
	}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
