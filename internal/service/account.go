package service

import (
	"context"
	"errors"

	"bookforum/internal/cache"
	"bookforum/internal/middleware"
	"bookforum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountService orchestrates whole-account deletion across users, forums,
// and the book catalog.
type AccountService struct {
	db *gorm.DB
}

// NewAccountService returns a new AccountService.
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// DeleteAccount removes the user and everything that hangs off them in one
// transaction: sole-admin forums get a random successor (or are deleted when
// the user was the only member), all memberships are removed, ownership rows
// are dropped, books with no remaining owner are deleted and stripped from
// every forum's hidden set, and finally the user row itself is deleted. Any
// failure aborts the whole cascade.
//
// Token revocation is the caller's job; the service does not touch sessions.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	var forumIDs []uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", userID)
			}
			return err
		}

		var memberships []models.ForumMembership
		if err := tx.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
			return err
		}

		for _, m := range memberships {
			forumIDs = append(forumIDs, m.ForumID)
			if m.Role != models.ForumRoleAdmin {
				continue
			}

			var adminCount int64
			if err := tx.Model(&models.ForumMembership{}).
				Where("forum_id = ? AND role = ?", m.ForumID, models.ForumRoleAdmin).
				Count(&adminCount).Error; err != nil {
				return err
			}
			if adminCount == 1 {
				if err := vacateSoleAdmin(tx, m.ForumID, userID); err != nil {
					return err
				}
			}
		}

		// Memberships of forums deleted by vacateSoleAdmin are already gone;
		// this removes the rest.
		if err := tx.Where("user_id = ?", userID).Delete(&models.ForumMembership{}).Error; err != nil {
			return err
		}

		var ownedBookIDs []uint
		if err := tx.Model(&models.OwnedBook{}).
			Where("user_id = ?", userID).
			Pluck("book_id", &ownedBookIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.OwnedBook{}).Error; err != nil {
			return err
		}

		// Books the user owned outright are garbage once their last ownership
		// row is gone. Co-owned books survive, so only the deleted books are
		// stripped from hidden sets; entries for surviving books stay put.
		for _, bookID := range ownedBookIDs {
			var owners int64
			if err := tx.Model(&models.OwnedBook{}).
				Where("book_id = ?", bookID).
				Count(&owners).Error; err != nil {
				return err
			}
			if owners > 0 {
				continue
			}

			if err := tx.Where("book_id = ?", bookID).Delete(&models.HiddenForumBook{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Forum{}).
				Where("featured_book_id = ?", bookID).
				Update("featured_book_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Book{}, bookID).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return wrapTxErr(err)
	}

	cache.InvalidateUser(ctx, userID)
	for _, forumID := range forumIDs {
		cache.InvalidateForum(ctx, forumID)
	}
	middleware.AccountDeletions.Inc()
	return nil
}
