package repository

import (
	"context"
	"errors"

	"bookforum/internal/cache"
	"bookforum/internal/models"

	"gorm.io/gorm"
)

// ForumRepository defines persistence operations for forums and their memberships.
type ForumRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Forum, error)
	// GetByInviteCode returns nil, nil when no forum has the given code.
	GetByInviteCode(ctx context.Context, code string) (*models.Forum, error)
	Update(ctx context.Context, forum *models.Forum) error
	// GetMembership returns nil, nil when the user is not a member of the forum.
	GetMembership(ctx context.Context, forumID, userID uint) (*models.ForumMembership, error)
	ListMemberships(ctx context.Context, forumID uint) ([]models.ForumMembership, error)
	ListForumsForUser(ctx context.Context, userID uint) ([]models.Forum, error)
	CountMembers(ctx context.Context, forumID uint) (int64, error)
	CountAdmins(ctx context.Context, forumID uint) (int64, error)
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository returns a new ForumRepository implementation.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) GetByID(ctx context.Context, id uint) (*models.Forum, error) {
	var forum models.Forum
	key := cache.ForumKey(id)

	err := cache.Aside(ctx, key, &forum, cache.ForumTTL, func() error {
		if err := r.db.WithContext(ctx).First(&forum, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Forum", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &forum, nil
}

func (r *forumRepository) GetByInviteCode(ctx context.Context, code string) (*models.Forum, error) {
	var forum models.Forum
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&forum).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &forum, nil
}

func (r *forumRepository) Update(ctx context.Context, forum *models.Forum) error {
	if err := r.db.WithContext(ctx).Save(forum).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateForum(ctx, forum.ID)
	return nil
}

func (r *forumRepository) GetMembership(ctx context.Context, forumID, userID uint) (*models.ForumMembership, error) {
	var membership models.ForumMembership
	err := r.db.WithContext(ctx).
		Where("forum_id = ? AND user_id = ?", forumID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &membership, nil
}

func (r *forumRepository) ListMemberships(ctx context.Context, forumID uint) ([]models.ForumMembership, error) {
	var memberships []models.ForumMembership
	err := r.db.WithContext(ctx).
		Where("forum_id = ?", forumID).
		Order("created_at").
		Find(&memberships).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return memberships, nil
}

func (r *forumRepository) ListForumsForUser(ctx context.Context, userID uint) ([]models.Forum, error) {
	var forums []models.Forum
	err := r.db.WithContext(ctx).
		Joins("JOIN forum_memberships ON forum_memberships.forum_id = forums.id").
		Where("forum_memberships.user_id = ?", userID).
		Order("forums.name").
		Find(&forums).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return forums, nil
}

func (r *forumRepository) CountMembers(ctx context.Context, forumID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ForumMembership{}).
		Where("forum_id = ?", forumID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *forumRepository) CountAdmins(ctx context.Context, forumID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ForumMembership{}).
		Where("forum_id = ? AND role = ?", forumID, models.ForumRoleAdmin).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
