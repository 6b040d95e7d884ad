package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BlogPost is an article of the legal blog
type BlogPost struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	Slug           string         `json:"slug" gorm:"size:200;uniqueIndex;not null"`
	Title          string         `json:"title" gorm:"size:255;not null"`
	Content        string         `json:"content,omitempty" gorm:"type:text"`
	Excerpt        string         `json:"excerpt,omitempty" gorm:"size:500"`
	CoverImage     string         `json:"coverImage,omitempty" gorm:"size:512"`
	Category       string         `json:"category,omitempty" gorm:"size:80;index"`
	Tags           datatypes.JSON `json:"tags,omitempty"`
	SeoTitle       string         `json:"seoTitle,omitempty" gorm:"size:255"`
	SeoDescription string         `json:"seoDescription,omitempty" gorm:"size:500"`
	Published      bool           `json:"published" gorm:"not null;default:false;index"`
	PublishedAt    *time.Time     `json:"publishedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (p *BlogPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Published && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	return nil
}

// TagList decodes the tags column; a malformed value yields no tags
func (p *BlogPost) TagList() []string {
	var tags []string
	if len(p.Tags) == 0 {
		return tags
	}
	_ = json.Unmarshal(p.Tags, &tags)
	return tags
}
