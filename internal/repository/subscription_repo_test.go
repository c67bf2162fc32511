package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/testutil"
)

func TestSubscriptionRepository_Upsert_InsertsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	company := testutil.TestCompany(t, db)

	sub := &model.Subscription{
		StripeSubscriptionID: "sub_1",
		CompanyID:            company.ID,
		StripeCustomerID:     "cus_1",
		Plan:                 "starter",
		Status:               model.SubscriptionStatusActive,
	}
	require.NoError(t, repo.Upsert(sub))

	// Replay with changed fields updates in place.
	replay := &model.Subscription{
		StripeSubscriptionID: "sub_1",
		CompanyID:            company.ID,
		StripeCustomerID:     "cus_1",
		Plan:                 "growth",
		Status:               model.SubscriptionStatusTrialing,
	}
	require.NoError(t, repo.Upsert(replay))

	var count int64
	require.NoError(t, db.Model(&model.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := repo.GetByStripeID("sub_1")
	require.NoError(t, err)
	assert.Equal(t, "growth", found.Plan)
	assert.Equal(t, model.SubscriptionStatusTrialing, found.Status)
}

func TestSubscriptionRepository_GetLatestByCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	company := testutil.TestCompany(t, db)

	old := testutil.TestSubscription(t, db, company.ID, testutil.WithCustomerID("cus_7"))
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-time.Hour)).Error)
	latest := testutil.TestSubscription(t, db, company.ID, testutil.WithCustomerID("cus_7"))

	found, err := repo.GetLatestByCustomer("cus_7")
	require.NoError(t, err)
	assert.Equal(t, latest.ID, found.ID)
}

func TestSubscriptionRepository_DeleteByStripeID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	company := testutil.TestCompany(t, db)

	sub := testutil.TestSubscription(t, db, company.ID)

	affected, err := repo.DeleteByStripeID(sub.StripeSubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = repo.GetByStripeID(sub.StripeSubscriptionID)
	assert.Error(t, err)

	// Deleting again is a no-op.
	affected, err = repo.DeleteByStripeID(sub.StripeSubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}
