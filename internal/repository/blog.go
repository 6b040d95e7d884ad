package repository

import (
	"context"
	"fmt"

	"github.com/abogadosonline/aoe-api/internal/model"
	"gorm.io/gorm"
)

// Blog paging limits
const (
	DefaultPageSize = 9
	MaxPageSize     = 50
)

// BlogQuery filters the published post listing
type BlogQuery struct {
	Category string
	Page     int
	Limit    int
}

func (q *BlogQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
}

// BlogPage is one page of published posts
type BlogPage struct {
	Posts      []model.BlogPost `json:"posts"`
	Categories []string         `json:"categories"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"totalPages"`
}

// BlogRepository reads blog posts
type BlogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// ListPublished returns a page of published posts, newest first
func (r *BlogRepository) ListPublished(ctx context.Context, q BlogQuery) (*BlogPage, error) {
	defer track("blog_query")()
	q.normalize()

	base := r.db.WithContext(ctx).Model(&model.BlogPost{}).Where("published = ?", true)
	if q.Category != "" {
		base = base.Where("category = ?", q.Category)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []model.BlogPost
	err := base.Session(&gorm.Session{}).
		Order("published_at DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	var categories []string
	err = r.db.WithContext(ctx).Model(&model.BlogPost{}).
		Where("published = ? AND category <> ''", true).
		Distinct().Order("category").Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return &BlogPage{
		Posts:      posts,
		Categories: categories,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	}, nil
}

// GetPublishedBySlug returns a published post; drafts are not found
func (r *BlogRepository) GetPublishedBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	defer track("blog_query")()

	var p model.BlogPost
	if err := r.db.WithContext(ctx).Where("slug = ? AND published = ?", slug, true).First(&p).Error; err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	return &p, nil
}
