// Package service implements the application's business logic.
package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"bookforum/internal/cache"
	"bookforum/internal/middleware"
	"bookforum/internal/models"
	"bookforum/internal/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipService owns forums and the user-forum membership relation.
// Every mutating operation runs inside a single transaction so the
// membership table, hidden-book set, and forum row change as a unit.
type MembershipService struct {
	db *gorm.DB
}

// NewMembershipService returns a new MembershipService.
func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// ForumMemberInfo is one roster entry in a forum details response.
type ForumMemberInfo struct {
	UserID uint             `json:"user_id"`
	Name   string           `json:"name"`
	Role   models.ForumRole `json:"role"`
}

// ForumDetails aggregates a forum for a requesting member. HiddenBooks and
// InviteCode are populated only when the requester is an admin.
type ForumDetails struct {
	Forum       models.Forum      `json:"forum"`
	Members     []ForumMemberInfo `json:"members"`
	Books       []models.Book     `json:"books"`
	HiddenBooks []models.Book     `json:"hidden_books,omitempty"`
	InviteCode  string            `json:"invite_code,omitempty"`
}

// MemberDetails describes one member of a forum together with the books of
// theirs that are visible in that forum.
type MemberDetails struct {
	UserID uint             `json:"user_id"`
	Name   string           `json:"name"`
	Role   models.ForumRole `json:"role"`
	Books  []models.Book    `json:"books"`
}

// ForumPatch is a partial forum update. Nil fields are left untouched.
type ForumPatch struct {
	Name           *string `json:"name"`
	Location       *string `json:"location"`
	Description    *string `json:"description"`
	MessengerLink  *string `json:"messenger_link"`
	InviteCode     *string `json:"invite_code"`
	FeaturedBookID *uint   `json:"featured_book_id"`
}

// NewInviteCode generates a fresh opaque invite code.
func NewInviteCode() string {
	return uuid.NewString()
}

// CreateForum creates a forum with the creator as its sole admin.
func (s *MembershipService) CreateForum(ctx context.Context, creatorID uint, name, location, description string) (*models.Forum, error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	description = strings.TrimSpace(description)

	if err := validation.ValidateForumName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateForumLocation(location); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateForumDescription(description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	forum := models.Forum{
		Name:        name,
		Location:    location,
		Description: description,
		InviteCode:  NewInviteCode(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Creator is checked inside the transaction so a concurrent account
		// deletion aborts the whole creation instead of leaving an orphan forum.
		var creator models.User
		if err := tx.First(&creator, creatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", creatorID)
			}
			return err
		}

		if err := tx.Create(&forum).Error; err != nil {
			return err
		}

		membership := models.ForumMembership{
			ForumID: forum.ID,
			UserID:  creatorID,
			Role:    models.ForumRoleAdmin,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	middleware.MembershipEvents.WithLabelValues("create").Inc()
	return &forum, nil
}

// JoinForum adds the user as a member of the forum matching the invite code.
func (s *MembershipService) JoinForum(ctx context.Context, userID uint, inviteCode string) (*models.Forum, error) {
	inviteCode = strings.TrimSpace(inviteCode)
	if inviteCode == "" {
		return nil, models.NewValidationError("invite code is required")
	}

	var forum models.Forum
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invite_code = ?", inviteCode).First(&forum).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Forum", inviteCode)
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.ForumMembership{}).
			Where("forum_id = ? AND user_id = ?", forum.ID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return models.NewValidationError("Already a member of this forum")
		}

		membership := models.ForumMembership{
			ForumID: forum.ID,
			UserID:  userID,
			Role:    models.ForumRoleMember,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	middleware.MembershipEvents.WithLabelValues("join").Inc()
	return &forum, nil
}

// ForumDetails returns the aggregated forum view for a current member: the
// roster plus the union of members' owned books minus the hidden set. Admins
// additionally see the hidden list and the invite code.
func (s *MembershipService) ForumDetails(ctx context.Context, forumID, requesterID uint) (*ForumDetails, error) {
	db := s.db.WithContext(ctx)

	var forum models.Forum
	if err := db.First(&forum, forumID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Forum", forumID)
		}
		return nil, models.NewInternalError(err)
	}

	requester, err := s.membership(ctx, forumID, requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, models.NewForbiddenError("You are not a member of this forum")
	}

	members, err := s.roster(ctx, forumID)
	if err != nil {
		return nil, err
	}

	hiddenIDs := db.Model(&models.HiddenForumBook{}).
		Select("book_id").
		Where("forum_id = ?", forumID)

	var books []models.Book
	if err := db.Distinct("books.*").
		Joins("JOIN owned_books ON owned_books.book_id = books.id").
		Joins("JOIN forum_memberships ON forum_memberships.user_id = owned_books.user_id").
		Where("forum_memberships.forum_id = ?", forumID).
		Where("books.id NOT IN (?)", hiddenIDs).
		Order("books.title").
		Find(&books).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	details := &ForumDetails{
		Forum:   forum,
		Members: members,
		Books:   books,
	}

	if requester.Role == models.ForumRoleAdmin {
		var hidden []models.Book
		if err := db.
			Joins("JOIN hidden_forum_books ON hidden_forum_books.book_id = books.id").
			Where("hidden_forum_books.forum_id = ?", forumID).
			Order("books.title").
			Find(&hidden).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		details.HiddenBooks = hidden
		details.InviteCode = forum.InviteCode
	}

	return details, nil
}

// MemberDetails returns one member's profile and the books of theirs visible
// in the forum. Both the requester and the target must be current members.
func (s *MembershipService) MemberDetails(ctx context.Context, forumID, requesterID, targetID uint) (*MemberDetails, error) {
	db := s.db.WithContext(ctx)

	requester, err := s.membership(ctx, forumID, requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, models.NewForbiddenError("You are not a member of this forum")
	}

	target, err := s.membership(ctx, forumID, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, models.NewNotFoundError("Forum member", targetID)
	}

	var user models.User
	if err := db.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", targetID)
		}
		return nil, models.NewInternalError(err)
	}

	hiddenIDs := db.Model(&models.HiddenForumBook{}).
		Select("book_id").
		Where("forum_id = ?", forumID)

	var books []models.Book
	if err := db.
		Joins("JOIN owned_books ON owned_books.book_id = books.id").
		Where("owned_books.user_id = ?", targetID).
		Where("books.id NOT IN (?)", hiddenIDs).
		Order("books.title").
		Find(&books).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return &MemberDetails{
		UserID: user.ID,
		Name:   user.Name,
		Role:   target.Role,
		Books:  books,
	}, nil
}

// EditForum applies a partial update to the forum. Admin-only. Present
// fields are trimmed and validated; absent fields are never cleared.
func (s *MembershipService) EditForum(ctx context.Context, forumID, requesterID uint, patch ForumPatch) (*models.Forum, error) {
	var forum models.Forum
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, forumID, requesterID); err != nil {
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&forum, forumID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Forum", forumID)
			}
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if err := validation.ValidateForumName(name); err != nil {
				return models.NewValidationError(err.Error())
			}
			forum.Name = name
		}
		if patch.Location != nil {
			location := strings.TrimSpace(*patch.Location)
			if err := validation.ValidateForumLocation(location); err != nil {
				return models.NewValidationError(err.Error())
			}
			forum.Location = location
		}
		if patch.Description != nil {
			description := strings.TrimSpace(*patch.Description)
			if err := validation.ValidateForumDescription(description); err != nil {
				return models.NewValidationError(err.Error())
			}
			forum.Description = description
		}
		if patch.MessengerLink != nil {
			forum.MessengerLink = strings.TrimSpace(*patch.MessengerLink)
		}
		if patch.InviteCode != nil {
			code := strings.TrimSpace(*patch.InviteCode)
			if code == "" {
				return models.NewValidationError("invite code cannot be empty")
			}
			forum.InviteCode = code
		}
		if patch.FeaturedBookID != nil {
			var count int64
			if err := tx.Model(&models.Book{}).Where("id = ?", *patch.FeaturedBookID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return models.NewNotFoundError("Book", *patch.FeaturedBookID)
			}
			forum.FeaturedBookID = patch.FeaturedBookID
		}

		return tx.Save(&forum).Error
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	cache.InvalidateForum(ctx, forumID)
	return &forum, nil
}

// RegenerateInviteCode replaces the forum's invite code with a fresh one.
// Admin-only. The old code stops resolving immediately.
func (s *MembershipService) RegenerateInviteCode(ctx context.Context, forumID, requesterID uint) (string, error) {
	code := NewInviteCode()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, forumID, requesterID); err != nil {
			return err
		}

		res := tx.Model(&models.Forum{}).Where("id = ?", forumID).Update("invite_code", code)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Forum", forumID)
		}
		return nil
	})
	if err != nil {
		return "", wrapTxErr(err)
	}

	cache.InvalidateForum(ctx, forumID)
	return code, nil
}

// LeaveForum removes the user's own membership. A sole admin may not leave
// a forum that still has other members; leaving as the last member deletes
// the forum entirely.
func (s *MembershipService) LeaveForum(ctx context.Context, forumID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := lockMembership(tx, forumID, userID)
		if err != nil {
			return err
		}
		if membership == nil {
			return models.NewValidationError("You are not a member of this forum")
		}

		var memberCount int64
		if err := tx.Model(&models.ForumMembership{}).
			Where("forum_id = ?", forumID).
			Count(&memberCount).Error; err != nil {
			return err
		}

		if memberCount == 1 {
			// Last member out: the forum goes with them.
			return dropForum(tx, forumID)
		}

		if membership.Role == models.ForumRoleAdmin {
			var adminCount int64
			if err := tx.Model(&models.ForumMembership{}).
				Where("forum_id = ? AND role = ?", forumID, models.ForumRoleAdmin).
				Count(&adminCount).Error; err != nil {
				return err
			}
			if adminCount == 1 {
				return models.NewForbiddenError("Promote another admin before leaving the forum")
			}
		}

		return tx.Where("forum_id = ? AND user_id = ?", forumID, userID).
			Delete(&models.ForumMembership{}).Error
	})
	if err != nil {
		return wrapTxErr(err)
	}

	cache.InvalidateForum(ctx, forumID)
	middleware.MembershipEvents.WithLabelValues("leave").Inc()
	return nil
}

// DeleteForum deletes the forum together with all memberships and hidden
// book rows. Admin-only. Not reversible.
func (s *MembershipService) DeleteForum(ctx context.Context, forumID, requesterID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, forumID, requesterID); err != nil {
			return err
		}
		return dropForum(tx, forumID)
	})
	if err != nil {
		return wrapTxErr(err)
	}

	cache.InvalidateForum(ctx, forumID)
	middleware.MembershipEvents.WithLabelValues("delete").Inc()
	return nil
}

// PromoteToAdmin grants the admin role to another current member.
func (s *MembershipService) PromoteToAdmin(ctx context.Context, forumID, requesterID, targetID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, forumID, requesterID); err != nil {
			return err
		}

		target, err := lockMembership(tx, forumID, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			return models.NewValidationError("Target user is not a member of this forum")
		}
		if target.Role == models.ForumRoleAdmin {
			return models.NewValidationError("Target user is already an admin")
		}

		return tx.Model(&models.ForumMembership{}).
			Where("forum_id = ? AND user_id = ?", forumID, targetID).
			Update("role", models.ForumRoleAdmin).Error
	})
	if err != nil {
		return wrapTxErr(err)
	}

	middleware.MembershipEvents.WithLabelValues("promote").Inc()
	return nil
}

// RemoveMember removes another member from the forum. Admins cannot remove
// themselves; they must leave or delete the forum instead.
func (s *MembershipService) RemoveMember(ctx context.Context, forumID, requesterID, targetID uint) error {
	if requesterID == targetID {
		return models.NewValidationError("Use leave to remove yourself from a forum")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, forumID, requesterID); err != nil {
			return err
		}

		target, err := lockMembership(tx, forumID, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			return models.NewValidationError("Target user is not a member of this forum")
		}

		return tx.Where("forum_id = ? AND user_id = ?", forumID, targetID).
			Delete(&models.ForumMembership{}).Error
	})
	if err != nil {
		return wrapTxErr(err)
	}

	middleware.MembershipEvents.WithLabelValues("remove").Inc()
	return nil
}

// HideBook adds a book to the forum's hidden set. Hiding an already-hidden
// book is a state conflict, not a silent no-op.
func (s *MembershipService) HideBook(ctx context.Context, forumID, requesterID, bookID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, forumID, requesterID); err != nil {
			return err
		}

		var bookCount int64
		if err := tx.Model(&models.Book{}).Where("id = ?", bookID).Count(&bookCount).Error; err != nil {
			return err
		}
		if bookCount == 0 {
			return models.NewNotFoundError("Book", bookID)
		}

		var hidden int64
		if err := tx.Model(&models.HiddenForumBook{}).
			Where("forum_id = ? AND book_id = ?", forumID, bookID).
			Count(&hidden).Error; err != nil {
			return err
		}
		if hidden > 0 {
			return models.NewValidationError("Book is already hidden in this forum")
		}

		return tx.Create(&models.HiddenForumBook{ForumID: forumID, BookID: bookID}).Error
	})
	return wrapTxErr(err)
}

// UnhideBook removes a book from the forum's hidden set. Unhiding a book
// that is not hidden is a state conflict.
func (s *MembershipService) UnhideBook(ctx context.Context, forumID, requesterID, bookID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, forumID, requesterID); err != nil {
			return err
		}

		var bookCount int64
		if err := tx.Model(&models.Book{}).Where("id = ?", bookID).Count(&bookCount).Error; err != nil {
			return err
		}
		if bookCount == 0 {
			return models.NewNotFoundError("Book", bookID)
		}

		res := tx.Where("forum_id = ? AND book_id = ?", forumID, bookID).
			Delete(&models.HiddenForumBook{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewValidationError("Book is not hidden in this forum")
		}
		return nil
	})
	return wrapTxErr(err)
}

// membership returns the user's membership row, or nil when not a member.
func (s *MembershipService) membership(ctx context.Context, forumID, userID uint) (*models.ForumMembership, error) {
	var membership models.ForumMembership
	err := s.db.WithContext(ctx).
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

func (s *MembershipService) roster(ctx context.Context, forumID uint) ([]ForumMemberInfo, error) {
	var members []ForumMemberInfo
	err := s.db.WithContext(ctx).
		Model(&models.ForumMembership{}).
		Select("forum_memberships.user_id, users.name, forum_memberships.role").
		Joins("JOIN users ON users.id = forum_memberships.user_id").
		Where("forum_memberships.forum_id = ?", forumID).
		Order("forum_memberships.created_at").
		Scan(&members).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return members, nil
}

// requireAdmin verifies the user holds the admin role in the forum. Returns
// NotFound when the forum does not exist so admin checks never leak forum
// existence to outsiders before a 404 would.
func requireAdmin(tx *gorm.DB, forumID, userID uint) error {
	var forumCount int64
	if err := tx.Model(&models.Forum{}).Where("id = ?", forumID).Count(&forumCount).Error; err != nil {
		return err
	}
	if forumCount == 0 {
		return models.NewNotFoundError("Forum", forumID)
	}

	var membership models.ForumMembership
	err := tx.Where("forum_id = ? AND user_id = ?", forumID, userID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewForbiddenError("Admin access required")
		}
		return err
	}
	if membership.Role != models.ForumRoleAdmin {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

// lockMembership loads a membership row FOR UPDATE, or nil when absent.
func lockMembership(tx *gorm.DB, forumID, userID uint) (*models.ForumMembership, error) {
	var membership models.ForumMembership
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("forum_id = ? AND user_id = ?", forumID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

// dropForum deletes the forum row plus all rows referencing it. Must run
// inside a transaction.
func dropForum(tx *gorm.DB, forumID uint) error {
	if err := tx.Where("forum_id = ?", forumID).Delete(&models.ForumMembership{}).Error; err != nil {
		return err
	}
	if err := tx.Where("forum_id = ?", forumID).Delete(&models.HiddenForumBook{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Forum{}, forumID).Error
}

// vacateSoleAdmin handles a sole admin departing a forum during account
// deletion: a uniformly random other member is promoted, or the forum is
// deleted when no other member exists. Must run inside a transaction; the
// caller removes the departing user's own membership afterwards.
func vacateSoleAdmin(tx *gorm.DB, forumID, departingUserID uint) error {
	var peers []models.ForumMembership
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("forum_id = ? AND user_id <> ?", forumID, departingUserID).
		Find(&peers).Error; err != nil {
		return err
	}

	if len(peers) == 0 {
		return dropForum(tx, forumID)
	}

	successor := peers[rand.Intn(len(peers))]
	if err := tx.Model(&models.ForumMembership{}).
		Where("forum_id = ? AND user_id = ?", forumID, successor.UserID).
		Update("role", models.ForumRoleAdmin).Error; err != nil {
		return err
	}

	middleware.MembershipEvents.WithLabelValues("succession").Inc()
	return nil
}

// wrapTxErr passes AppErrors through and wraps anything else as internal.
func wrapTxErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
