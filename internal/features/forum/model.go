package forum

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/pkg/pagination"
	"github.com/forumhub/forum-server-go/pkg/types"
)

// Forum is a discussion area. Posts and subscriptions hang off it.
type Forum struct {
	types.BaseModel
	Title       string         `gorm:"size:100;not null" json:"title"`
	Description string         `gorm:"size:600" json:"description"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`
}

// TableName overrides the default table name.
func (Forum) TableName() string {
	return "forums"
}

// List retrieves paginated forums ordered by title.
func List(db *gorm.DB, params pagination.Params) ([]Forum, int64, error) {
	var total int64
	if err := db.Model(&Forum{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var forums []Forum
	err := db.
		Order("title ASC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&forums).Error

	return forums, total, err
}

// Get retrieves a single forum by ID.
func Get(db *gorm.DB, id uuid.UUID) (*Forum, error) {
	var f Forum
	if err := db.First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForumNotFound
		}
		return nil, err
	}
	return &f, nil
}

// PostSummary is the shape of a post on the forum detail page. Queried
// through the posts table directly to avoid an import cycle with the post
// feature.
type PostSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ForumWithPosts is a forum with its most recent posts.
type ForumWithPosts struct {
	Forum
	Posts []PostSummary `json:"posts"`
}

// GetWithRecentPosts retrieves a forum plus up to 20 of its newest posts.
func GetWithRecentPosts(db *gorm.DB, id uuid.UUID) (*ForumWithPosts, error) {
	f, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	var posts []PostSummary
	err = db.Table("posts").
		Where("forum_id = ?", id).
		Order("created_at DESC").
		Limit(20).
		Select("id, title, user_id, created_at").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return &ForumWithPosts{Forum: *f, Posts: posts}, nil
}
