package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubops/club-billing/internal/models"
)

func TestStorage_BulkInsertShares(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	ctx := context.Background()

	period := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	firstUID := factory.CreateMember(t, "Иванов Иван", "ivanov@example.com", false, true)
	secondUID := factory.CreateMember(t, "Петров Петр", "petrov@example.com", true, true)

	drafts := []models.ShareDraft{
		{MemberUID: firstUID, PeriodDate: period, Amount: 30000, State: models.ShareStatePending},
		{MemberUID: secondUID, PeriodDate: period, Amount: 27000, State: models.ShareStatePending},
	}

	created, err := storage.BulkInsertShares(ctx, drafts)
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, share := range created {
		assert.Greater(t, share.ID, 0)
		assert.Equal(t, models.ShareStatePending, share.State)
	}
	verify.VerifyShareCountForPeriod(t, firstUID, period, 1)
	verify.VerifyShareCountForPeriod(t, secondUID, period, 1)

	// Повторная вставка тех же черновиков не создает дубликатов
	again, err := storage.BulkInsertShares(ctx, drafts)
	require.NoError(t, err)
	assert.Empty(t, again)
	verify.VerifyShareCountForPeriod(t, firstUID, period, 1)
	verify.VerifyShareCountForPeriod(t, secondUID, period, 1)

	// Частичное пересечение: создается только недостающая квота
	thirdUID := factory.CreateMember(t, "Сидоров Алексей", "", false, true)
	mixed := append(drafts, models.ShareDraft{
		MemberUID: thirdUID, PeriodDate: period, Amount: 30000, State: models.ShareStatePending,
	})
	created, err = storage.BulkInsertShares(ctx, mixed)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, thirdUID, created[0].MemberUID)
}

func TestStorage_FindSharesByPeriod(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	period := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	otherPeriod := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	firstUID := factory.CreateMember(t, "Иванов Иван", "ivanov@example.com", false, true)
	secondUID := factory.CreateMember(t, "Петров Петр", "petrov@example.com", false, true)

	factory.CreateShare(t, firstUID, period, 30000, models.ShareStatePending)
	factory.CreateShare(t, firstUID, otherPeriod, 30000, models.ShareStatePaid)
	factory.CreateShare(t, secondUID, period, 30000, models.ShareStatePending)

	// Ограничение по списку участников
	found, err := storage.FindSharesByPeriod(ctx, period, []string{firstUID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, firstUID, found[0].MemberUID)

	// Пустой список: все квоты периода
	found, err = storage.FindSharesByPeriod(ctx, period, nil)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestStorage_FindSharesByStates(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	period := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	plainUID := factory.CreateMember(t, "Иванов Иван", "ivanov@example.com", false, true)
	discountUID := factory.CreateMember(t, "Петров Петр", "petrov@example.com", true, true)
	paidUID := factory.CreateMember(t, "Сидоров Алексей", "", false, true)

	factory.CreateShare(t, plainUID, period, 30000, models.ShareStatePending)
	factory.CreateShare(t, discountUID, period, 29700, models.ShareStateOverdue)
	factory.CreateShare(t, paidUID, period, 30000, models.ShareStatePaid)

	found, err := storage.FindSharesByStates(ctx,
		[]models.ShareState{models.ShareStatePending, models.ShareStateOverdue})
	require.NoError(t, err)
	require.Len(t, found, 2)

	byUID := make(map[string]*models.OutstandingShare, len(found))
	for _, item := range found {
		byUID[item.Share.MemberUID] = item
	}
	require.Contains(t, byUID, plainUID)
	require.Contains(t, byUID, discountUID)
	assert.False(t, byUID[plainUID].HasSiblingDiscount)
	assert.True(t, byUID[discountUID].HasSiblingDiscount)
	assert.NotContains(t, byUID, paidUID, "paid shares must be excluded by the query")
}

func TestStorage_BulkUpdateShares(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	ctx := context.Background()

	period := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	firstUID := factory.CreateMember(t, "Иванов Иван", "ivanov@example.com", false, true)
	secondUID := factory.CreateMember(t, "Петров Петр", "petrov@example.com", false, true)

	pendingID := factory.CreateShare(t, firstUID, period, 30000, models.ShareStatePending)
	paidID := factory.CreateShare(t, secondUID, period, 30000, models.ShareStatePaid)

	updated, err := storage.BulkUpdateShares(ctx, []models.ShareUpdate{
		{ID: pendingID, Amount: 33000, State: models.ShareStateOverdue},
		{ID: paidID, Amount: 33000, State: models.ShareStateOverdue},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated, "paid share must not be repriced")

	verify.VerifyShareState(t, pendingID, 33000, models.ShareStateOverdue)
	verify.VerifyShareState(t, paidID, 30000, models.ShareStatePaid)
}

func TestStorage_MarkSharePaid(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	period := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	memberUID := factory.CreateMember(t, "Иванов Иван", "ivanov@example.com", false, true)
	shareID := factory.CreateShare(t, memberUID, period, 30000, models.ShareStatePending)

	paymentDate := time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC)
	err := storage.MarkSharePaid(ctx, shareID, "cash", paymentDate, "admin")
	require.NoError(t, err)

	var state string
	var paymentMethod, updatedBy *string
	err = storage.DB.QueryRow(
		"SELECT state, payment_method, updated_by FROM shares WHERE id = $1", shareID).
		Scan(&state, &paymentMethod, &updatedBy)
	require.NoError(t, err)
	assert.Equal(t, "paid", state)
	require.NotNil(t, paymentMethod)
	assert.Equal(t, "cash", *paymentMethod)
	require.NotNil(t, updatedBy)
	assert.Equal(t, "admin", *updatedBy)

	// Повторная оплата и неизвестный ID дают разные ошибки
	err = storage.MarkSharePaid(ctx, shareID, "transfer", paymentDate, "admin")
	require.ErrorIs(t, err, ErrShareAlreadyPaid)

	err = storage.MarkSharePaid(ctx, shareID+1000, "cash", paymentDate, "admin")
	require.ErrorIs(t, err, ErrShareNotFound)
}

func TestStorage_ListActiveMembers(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	activeUID := factory.CreateMember(t, "Иванов Иван", "ivanov@example.com", false, true)
	noEmailUID := factory.CreateMember(t, "Петров Петр", "", true, true)
	factory.CreateMember(t, "Сидоров Алексей", "sidorov@example.com", false, false)

	members, err := storage.ListActiveMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)

	byUID := make(map[string]*models.Member, len(members))
	for _, m := range members {
		byUID[m.UID] = m
	}
	require.Contains(t, byUID, activeUID)
	require.Contains(t, byUID, noEmailUID)
	assert.Equal(t, "", byUID[noEmailUID].Email, "NULL email reads as an empty string")
	assert.True(t, byUID[noEmailUID].HasSiblingDiscount)

	member, err := storage.GetMemberByUID(ctx, activeUID)
	require.NoError(t, err)
	assert.Equal(t, "Иванов Иван", member.FullName)

	_, err = storage.GetMemberByUID(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrMemberNotFound)
}
