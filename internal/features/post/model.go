package post

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/pkg/types"
)

// Post is one member's contribution to a forum.
type Post struct {
	types.BaseModel
	ForumID uuid.UUID `gorm:"type:uuid;not null;index" json:"forumId"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Title   string    `gorm:"size:200;not null" json:"title"`
	Content string    `gorm:"type:text;not null" json:"content"`
}

// TableName overrides the default table name.
func (Post) TableName() string {
	return "posts"
}

// Params is the permitted submission for create and update. The owner id is
// accepted here but always overwritten with the session identity before any
// write.
type Params struct {
	Title   string    `params:"title"`
	Content string    `params:"content"`
	UserID  uuid.UUID `params:"user_id"`
}

func validate(p *Post) error {
	fieldErrors := types.FieldErrors{}

	if strings.TrimSpace(p.Title) == "" {
		fieldErrors["title"] = "Title can't be blank"
	}
	if strings.TrimSpace(p.Content) == "" {
		fieldErrors["content"] = "Content can't be blank"
	}

	if len(fieldErrors) > 0 {
		return fieldErrors
	}
	return nil
}

// ListByForum retrieves a forum's posts, newest first.
func ListByForum(db *gorm.DB, forumID uuid.UUID) ([]Post, error) {
	var posts []Post
	err := db.
		Where("forum_id = ?", forumID).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// Get retrieves a single post by ID.
func Get(db *gorm.DB, id uuid.UUID) (*Post, error) {
	var p Post
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create validates and inserts a new post.
func Create(db *gorm.DB, p *Post) error {
	if err := validate(p); err != nil {
		return err
	}
	return db.Create(p).Error
}

// Update applies the permitted fields to an existing post and saves it.
func Update(db *gorm.DB, p *Post, input Params) error {
	p.Title = input.Title
	p.Content = input.Content
	p.UserID = input.UserID

	if err := validate(p); err != nil {
		return err
	}
	return db.Save(p).Error
}

// Delete removes a post.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Post{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
