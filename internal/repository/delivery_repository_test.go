package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/database"
)

func newTestRepository(t *testing.T) *DeliveryRepository {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db))

	return NewDeliveryRepository(db)
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, repo *DeliveryRepository, messageID int64, status domain.DeliveryStatus) *domain.Delivery {
	t.Helper()

	d := &domain.Delivery{
		DeliveryID: "delivery-" + string(status) + "-" + string(rune('a'+messageID)),
		ChannelID:  555,
		MessageID:  messageID,
		Status:     status,
		Payload:    `{"text":"hello","message_id":42,"date":"2024-01-01T00:00:00Z","channel_id":555}`,
	}
	switch status {
	case domain.DeliveryDelivered:
		d.StatusCode = 200
	case domain.DeliveryRejected:
		d.StatusCode = 500
	case domain.DeliveryFailedStatus:
		d.LastError = strPtr("connection refused")
	}

	created, err := repo.Create(context.Background(), d)
	require.NoError(t, err)
	return created
}

func TestDeliveryRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)

	created := seed(t, repo, 1, domain.DeliveryFailedStatus)

	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(555), created.ChannelID)
	assert.Equal(t, domain.DeliveryFailedStatus, created.Status)
	require.NotNil(t, created.LastError)
	assert.Equal(t, "connection refused", *created.LastError)
	assert.False(t, created.CreatedAt.IsZero())

	missing, err := repo.GetByID(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeliveryRepository_GetAllFiltersAndPaginates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	seed(t, repo, 1, domain.DeliveryDelivered)
	seed(t, repo, 2, domain.DeliveryFailedStatus)
	seed(t, repo, 3, domain.DeliveryDelivered)
	seed(t, repo, 4, domain.DeliveryRejected)

	all, total, err := repo.GetAll(ctx, nil, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, all, 3)
	assert.Equal(t, int64(4), all[0].MessageID, "newest first")

	page2, _, err := repo.GetAll(ctx, nil, 2, 3)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, int64(1), page2[0].MessageID)

	delivered := domain.DeliveryDelivered
	onlyDelivered, total, err := repo.GetAll(ctx, &delivered, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, d := range onlyDelivered {
		assert.Equal(t, domain.DeliveryDelivered, d.Status)
	}
}

func TestDeliveryRepository_GetStats(t *testing.T) {
	repo := newTestRepository(t)

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStats{}, stats)

	seed(t, repo, 1, domain.DeliveryDelivered)
	seed(t, repo, 2, domain.DeliveryFailedStatus)
	seed(t, repo, 3, domain.DeliveryFailedStatus)
	seed(t, repo, 4, domain.DeliveryRejected)

	stats, err = repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStats{Delivered: 1, Rejected: 1, Failed: 2}, stats)
}

func TestDeliveryRepository_UpdateOutcome(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := seed(t, repo, 1, domain.DeliveryFailedStatus)

	require.NoError(t, repo.UpdateOutcome(ctx, created.ID, domain.DeliveryDelivered, 200, nil))

	updated, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryDelivered, updated.Status)
	assert.Equal(t, 200, updated.StatusCode)
	assert.Nil(t, updated.LastError)

	assert.Error(t, repo.UpdateOutcome(ctx, 9999, domain.DeliveryDelivered, 200, nil))
}
