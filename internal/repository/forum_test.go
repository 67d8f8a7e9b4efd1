package repository

import (
	"context"
	"testing"

	"bookforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForumRepositoryInviteCodeLookup(t *testing.T) {
	t.Parallel()

	db := setupRepoTestDB(t)
	repo := NewForumRepository(db)
	ctx := context.Background()

	forum := models.Forum{Name: "Lookup", Location: "Here", InviteCode: "code-abc"}
	require.NoError(t, db.Create(&forum).Error)

	got, err := repo.GetByInviteCode(ctx, "code-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, forum.ID, got.ID)

	miss, err := repo.GetByInviteCode(ctx, "code-xyz")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestForumRepositoryMembershipQueries(t *testing.T) {
	t.Parallel()

	db := setupRepoTestDB(t)
	repo := NewForumRepository(db)
	ctx := context.Background()

	forum := models.Forum{Name: "Counts", Location: "Here", InviteCode: "code-counts"}
	require.NoError(t, db.Create(&forum).Error)
	require.NoError(t, db.Create(&models.ForumMembership{
		ForumID: forum.ID, UserID: 1, Role: models.ForumRoleAdmin,
	}).Error)
	require.NoError(t, db.Create(&models.ForumMembership{
		ForumID: forum.ID, UserID: 2, Role: models.ForumRoleMember,
	}).Error)

	membership, err := repo.GetMembership(ctx, forum.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, models.ForumRoleAdmin, membership.Role)

	none, err := repo.GetMembership(ctx, forum.ID, 3)
	require.NoError(t, err)
	assert.Nil(t, none)

	members, err := repo.CountMembers(ctx, forum.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), members)

	admins, err := repo.CountAdmins(ctx, forum.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	memberships, err := repo.ListMemberships(ctx, forum.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)
}

func TestForumRepositoryListForumsForUser(t *testing.T) {
	t.Parallel()

	db := setupRepoTestDB(t)
	repo := NewForumRepository(db)
	ctx := context.Background()

	beta := models.Forum{Name: "Beta", Location: "Here", InviteCode: "code-beta"}
	alpha := models.Forum{Name: "Alpha", Location: "Here", InviteCode: "code-alpha"}
	other := models.Forum{Name: "Other", Location: "Here", InviteCode: "code-other"}
	for _, f := range []*models.Forum{&beta, &alpha, &other} {
		require.NoError(t, db.Create(f).Error)
	}
	require.NoError(t, db.Create(&models.ForumMembership{ForumID: beta.ID, UserID: 9, Role: models.ForumRoleMember}).Error)
	require.NoError(t, db.Create(&models.ForumMembership{ForumID: alpha.ID, UserID: 9, Role: models.ForumRoleAdmin}).Error)

	forums, err := repo.ListForumsForUser(ctx, 9)
	require.NoError(t, err)
	require.Len(t, forums, 2)
	// ordered by name
	assert.Equal(t, "Alpha", forums[0].Name)
	assert.Equal(t, "Beta", forums[1].Name)
}
