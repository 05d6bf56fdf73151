package subscription

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/internal/features/forum"
	"github.com/forumhub/forum-server-go/pkg/types"
)

// Subscription links a member to a forum with a read priority. The composite
// unique index closes the race the advisory check in `new` leaves open.
type Subscription struct {
	types.BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_forum" json:"userId"`
	ForumID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_forum" json:"forumId"`
	Priority int       `gorm:"not null;default:0" json:"priority"`
}

// TableName overrides the default table name.
func (Subscription) TableName() string {
	return "subscriptions"
}

// Params is the permitted submission for create and update. The user id is
// accepted here but always overwritten with the session identity before any
// write.
type Params struct {
	UserID   uuid.UUID `params:"user_id"`
	ForumID  uuid.UUID `params:"forum_id"`
	Priority int       `params:"priority"`
}

func validate(s *Subscription) error {
	fieldErrors := types.FieldErrors{}

	if s.ForumID == uuid.Nil {
		fieldErrors["forum"] = "Forum must exist"
	}
	if s.Priority < 0 {
		fieldErrors["priority"] = "Priority must be greater than or equal to 0"
	}

	if len(fieldErrors) > 0 {
		return fieldErrors
	}
	return nil
}

// GetScoped retrieves a subscription by ID restricted to its owner. Someone
// else's subscription is indistinguishable from a missing one.
func GetScoped(db *gorm.DB, id, userID uuid.UUID) (*Subscription, error) {
	var s Subscription
	err := db.First(&s, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// IsSubscribed reports whether the member already subscribes to the forum.
func IsSubscribed(db *gorm.DB, userID, forumID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&Subscription{}).
		Where("user_id = ? AND forum_id = ?", userID, forumID).
		Count(&count).Error
	return count > 0, err
}

// SubscribedForums returns the forums the member subscribes to, most
// important first.
func SubscribedForums(db *gorm.DB, userID uuid.UUID) ([]forum.Forum, error) {
	var forums []forum.Forum
	err := db.Raw(
		`SELECT forums.* FROM forums
		 JOIN subscriptions ON forums.id = subscriptions.forum_id
		 WHERE subscriptions.user_id = ?
		 ORDER BY subscriptions.priority`,
		userID,
	).Scan(&forums).Error
	return forums, err
}

// Create validates and inserts a new subscription. A duplicate (user, forum)
// pair surfaces as ErrAlreadySubscribed via the unique index.
func Create(db *gorm.DB, s *Subscription) error {
	if err := validate(s); err != nil {
		return err
	}

	if err := db.Create(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

// Update applies the permitted fields and saves. An absent forum id keeps
// the current forum.
func Update(db *gorm.DB, s *Subscription, input Params) error {
	if input.ForumID != uuid.Nil {
		s.ForumID = input.ForumID
	}
	s.Priority = input.Priority
	s.UserID = input.UserID

	if err := validate(s); err != nil {
		return err
	}

	if err := db.Save(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

// Delete removes a subscription.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Subscription{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
