package server

import (
	"conduit/internal/models"
	"conduit/internal/service"

	"github.com/gofiber/fiber/v2"
)

type articleEnvelope struct {
	Article models.ArticleView `json:"article"`
}

type articlesEnvelope struct {
	Articles      []models.ArticleView `json:"articles"`
	ArticlesCount int64                `json:"articlesCount"`
}

type createArticleRequest struct {
	Article struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Body        string   `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}

type updateArticleRequest struct {
	Article struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Body        *string `json:"body"`
	} `json:"article"`
}

// ListArticles handles GET /api/articles
// @Summary List articles
// @Description Newest first. Filters combine; favorited listings are ordered by when the like was made.
// @Tags articles
// @Produce json
// @Param tag query string false "Tag name"
// @Param author query string false "Author username"
// @Param favorited query string false "Username whose favorites to list"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} articlesEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Router /articles [get]
func (s *Server) ListArticles(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewer, err := s.viewer(c)
	if err != nil {
		return respondError(c, err)
	}

	page := s.pageFor(c)
	in := service.ListArticlesInput{
		Tag:         c.Query("tag"),
		Author:      c.Query("author"),
		FavoritedBy: c.Query("favorited"),
		Page:        page,
	}

	var (
		articles []*models.Article
		total    int64
	)
	// The favorites listing keeps its own ordering when it is the only filter.
	if in.FavoritedBy != "" && in.Tag == "" && in.Author == "" {
		articles, total, err = s.articles.ListFavoritedBy(ctx, in.FavoritedBy, page)
	} else {
		articles, total, err = s.articles.List(ctx, in)
	}
	if err != nil {
		return respondError(c, err)
	}
	return s.writeArticles(c, viewer, articles, total)
}

// FeedArticles handles GET /api/articles/feed
// @Summary Feed
// @Description Articles by authors the caller follows, newest first
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} articlesEnvelope
// @Failure 401 {object} models.ErrorResponse
// @Router /articles/feed [get]
func (s *Server) FeedArticles(c *fiber.Ctx) error {
	viewer, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	articles, total, err := s.articles.Feed(c.UserContext(), viewer, s.pageFor(c))
	if err != nil {
		return respondError(c, err)
	}
	return s.writeArticles(c, viewer, articles, total)
}

// GetArticle handles GET /api/articles/:slug
// @Summary Get article
// @Tags articles
// @Produce json
// @Param slug path string true "Article slug"
// @Success 200 {object} articleEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	viewer, err := s.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	article, err := s.articles.FindBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return s.writeArticle(c, fiber.StatusOK, viewer, article)
}

// CreateArticle handles POST /api/articles
// @Summary Create article
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createArticleRequest true "Article"
// @Success 201 {object} articleEnvelope
// @Failure 422 {object} models.ErrorResponse
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	var req createArticleRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	article, err := s.articles.Create(c.UserContext(), actor, service.CreateArticleInput{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		return respondError(c, err)
	}
	return s.writeArticle(c, fiber.StatusCreated, actor, article)
}

// UpdateArticle handles PUT /api/articles/:slug
// @Summary Update article
// @Description Only the author may edit. A new title changes the slug.
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Article slug"
// @Param request body updateArticleRequest true "Fields to change"
// @Success 200 {object} articleEnvelope
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	var req updateArticleRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}

	article, err := s.articles.Update(c.UserContext(), actor, c.Params("slug"), service.UpdateArticleInput{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
	})
	if err != nil {
		return respondError(c, err)
	}
	return s.writeArticle(c, fiber.StatusOK, actor, article)
}

// DeleteArticle handles DELETE /api/articles/:slug
// @Summary Delete article
// @Description Removes the article with its comments, favorites and tag links
// @Tags articles
// @Security BearerAuth
// @Param slug path string true "Article slug"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	if err := s.articles.Delete(c.UserContext(), actor, c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FavoriteArticle handles POST /api/articles/:slug/favorite
// @Summary Favorite article
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Article slug"
// @Success 200 {object} articleEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug}/favorite [post]
func (s *Server) FavoriteArticle(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	article, err := s.favorites.Favorite(c.UserContext(), actor, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return s.writeArticle(c, fiber.StatusOK, actor, article)
}

// UnfavoriteArticle handles DELETE /api/articles/:slug/favorite
// @Summary Unfavorite article
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Article slug"
// @Success 200 {object} articleEnvelope
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{slug}/favorite [delete]
func (s *Server) UnfavoriteArticle(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	article, err := s.favorites.Unfavorite(c.UserContext(), actor, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return s.writeArticle(c, fiber.StatusOK, actor, article)
}

func (s *Server) writeArticle(c *fiber.Ctx, status int, viewer *models.User, article *models.Article) error {
	view, err := s.views.Article(c.UserContext(), viewer, article)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(articleEnvelope{Article: view})
}

func (s *Server) writeArticles(c *fiber.Ctx, viewer *models.User, articles []*models.Article, total int64) error {
	views, err := s.views.Articles(c.UserContext(), viewer, articles)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articlesEnvelope{Articles: views, ArticlesCount: total})
}
