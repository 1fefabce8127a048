package service

import (
	"context"

	"github.com/suportia/helpdesk/internal/model"
	"gorm.io/gorm"
)

// ArticleService is the knowledge-base store.
type ArticleService struct {
	db *gorm.DB
}

func NewArticleService(db *gorm.DB) *ArticleService {
	return &ArticleService{db: db}
}

func (s *ArticleService) ListArticles(ctx context.Context) ([]model.Article, error) {
	var items []model.Article
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ArticleService) CreateArticle(ctx context.Context, a *model.Article) error {
	return s.db.WithContext(ctx).Create(a).Error
}
