package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suportia/helpdesk/internal/auth"
	"github.com/suportia/helpdesk/internal/model"
	"github.com/suportia/helpdesk/internal/service"
	"gorm.io/datatypes"
)

type ArticleHandler struct {
	articles   *service.ArticleService
	production bool
}

func NewArticleHandler(articles *service.ArticleService, production bool) *ArticleHandler {
	return &ArticleHandler{articles: articles, production: production}
}

func (h *ArticleHandler) List(c *gin.Context) {
	articles, err := h.articles.ListArticles(c.Request.Context())
	if err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

type createArticleRequest struct {
	Title    string   `json:"title" binding:"required"`
	Content  string   `json:"content" binding:"required"`
	IsPublic *bool    `json:"isPublic"`
	Tags     []string `json:"tags"`
}

func (h *ArticleHandler) Create(c *gin.Context) {
	var req createArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	article := &model.Article{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: auth.UserID(c),
		IsPublic: true,
		Tags:     datatypes.JSONSlice[string](req.Tags),
	}
	if req.IsPublic != nil {
		article.IsPublic = *req.IsPublic
	}
	if err := h.articles.CreateArticle(c.Request.Context(), article); err != nil {
		internalError(c, h.production, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}
