package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tote-sponsor-system/models"
)

func TestCreatePoolUpdatesCauseTotals(t *testing.T) {
	db := newTestDB(t)
	svc := NewSponsorshipService(db, nil)
	creator := seedUser(t, db, "maya", models.RoleCreator)
	sponsor := seedUser(t, db, "acme", models.RoleSponsor)
	cause := seedCause(t, db, creator.ID, 20, 50, models.CauseStatusApproved)

	pool, err := svc.CreatePool(context.Background(), CreatePoolInput{
		CauseID:   cause.ID,
		SponsorID: sponsor.ID,
		Capacity:  5,
		Message:   "Happy learning",
		Branding:  "ACME",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SponsorshipStatusActive, pool.Status)
	assert.Equal(t, 5, pool.Remaining())

	var reloaded models.Cause
	require.NoError(t, db.First(&reloaded, "id = ?", cause.ID).Error)
	assert.Equal(t, 5, reloaded.PledgedQuantity)
	assert.Equal(t, "250.00", reloaded.CurrentAmount.StringFixed(2))
	assert.Equal(t, "25.00", ProgressPercentage(reloaded.CurrentAmount, reloaded.TotalAmount).StringFixed(2))
}

func TestCreatePoolAcceptsOverPledge(t *testing.T) {
	db := newTestDB(t)
	svc := NewSponsorshipService(db, nil)
	creator := seedUser(t, db, "maya", models.RoleCreator)
	sponsor := seedUser(t, db, "acme", models.RoleSponsor)
	cause := seedCause(t, db, creator.ID, 2, 10, models.CauseStatusApproved)

	_, err := svc.CreatePool(context.Background(), CreatePoolInput{CauseID: cause.ID, SponsorID: sponsor.ID, Capacity: 3})
	require.NoError(t, err)

	var reloaded models.Cause
	require.NoError(t, db.First(&reloaded, "id = ?", cause.ID).Error)
	assert.Equal(t, 3, reloaded.PledgedQuantity)
	assert.True(t, IsFullyFunded(reloaded.CurrentAmount, reloaded.TotalAmount))
}

func TestCreatePoolErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewSponsorshipService(db, nil)
	creator := seedUser(t, db, "maya", models.RoleCreator)
	sponsor := seedUser(t, db, "acme", models.RoleSponsor)
	pending := seedCause(t, db, creator.ID, 10, 10, models.CauseStatusPending)
	ctx := context.Background()

	for _, capacity := range []int{0, -3} {
		_, err := svc.CreatePool(ctx, CreatePoolInput{CauseID: pending.ID, SponsorID: sponsor.ID, Capacity: capacity})
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	}

	_, err := svc.CreatePool(ctx, CreatePoolInput{CauseID: uuid.NewString(), SponsorID: sponsor.ID, Capacity: 1})
	assert.ErrorIs(t, err, ErrCauseNotFound)

	_, err = svc.CreatePool(ctx, CreatePoolInput{CauseID: "bogus", SponsorID: sponsor.ID, Capacity: 1})
	assert.ErrorIs(t, err, ErrCauseNotFound)

	_, err = svc.CreatePool(ctx, CreatePoolInput{CauseID: pending.ID, SponsorID: sponsor.ID, Capacity: 1})
	assert.ErrorIs(t, err, ErrCauseNotApproved)

	var reloaded models.Cause
	require.NoError(t, db.First(&reloaded, "id = ?", pending.ID).Error)
	assert.Zero(t, reloaded.PledgedQuantity)

	var pools int64
	db.Model(&models.Sponsorship{}).Count(&pools)
	assert.Zero(t, pools)
}

func TestCreatePoolRejectsOversizedPledges(t *testing.T) {
	db := newTestDB(t)
	svc := NewSponsorshipService(db, nil)
	creator := seedUser(t, db, "maya", models.RoleCreator)
	sponsor := seedUser(t, db, "acme", models.RoleSponsor)
	cause := seedCause(t, db, creator.ID, 10, 10, models.CauseStatusApproved)
	ctx := context.Background()

	_, err := svc.CreatePool(ctx, CreatePoolInput{CauseID: cause.ID, SponsorID: sponsor.ID, Capacity: MaxBagsPerRequest + 1})
	assert.ErrorIs(t, err, ErrCapacityTooLarge)

	// pledged quantity already near its ceiling
	require.NoError(t, db.Model(&models.Cause{}).Where("id = ?", cause.ID).
		UpdateColumn("pledged_quantity", MaxPledgedQuantity-5).Error)
	_, err = svc.CreatePool(ctx, CreatePoolInput{CauseID: cause.ID, SponsorID: sponsor.ID, Capacity: 6})
	assert.ErrorIs(t, err, ErrPledgeOverflow)

	_, err = svc.CreatePool(ctx, CreatePoolInput{CauseID: cause.ID, SponsorID: sponsor.ID, Capacity: 5})
	require.NoError(t, err)

	// a priced cause whose running amount would leave decimal(14,2)
	pricey := seedCause(t, db, creator.ID, 10, 10, models.CauseStatusApproved)
	require.NoError(t, db.Model(&models.Cause{}).Where("id = ?", pricey.ID).
		UpdateColumn("single_item_price", MaxSingleItemPrice).Error)
	_, err = svc.CreatePool(ctx, CreatePoolInput{CauseID: pricey.ID, SponsorID: sponsor.ID, Capacity: 1000})
	assert.ErrorIs(t, err, ErrPledgeOverflow)

	var reloaded models.Cause
	require.NoError(t, db.First(&reloaded, "id = ?", pricey.ID).Error)
	assert.Zero(t, reloaded.PledgedQuantity)
	assert.True(t, reloaded.CurrentAmount.Equal(decimal.Zero))

	var pools int64
	require.NoError(t, db.Model(&models.Sponsorship{}).Count(&pools).Error)
	assert.Equal(t, int64(1), pools)
}

func TestReserveUnitCompletesPool(t *testing.T) {
	db := newTestDB(t)
	svc := NewSponsorshipService(db, nil)
	creator := seedUser(t, db, "maya", models.RoleCreator)
	sponsor := seedUser(t, db, "acme", models.RoleSponsor)
	cause := seedCause(t, db, creator.ID, 10, 10, models.CauseStatusApproved)
	pool := seedPool(t, db, cause.ID, sponsor.ID, 2, time.Now())
	now := time.Now()

	require.NoError(t, svc.ReserveUnit(db, pool, now))
	assert.Equal(t, models.SponsorshipStatusActive, pool.Status)
	require.NoError(t, svc.ReserveUnit(db, pool, now))
	assert.Equal(t, models.SponsorshipStatusCompleted, pool.Status)

	var stored models.Sponsorship
	require.NoError(t, db.First(&stored, "id = ?", pool.ID).Error)
	assert.Equal(t, 2, stored.Consumed)
	assert.Equal(t, models.SponsorshipStatusCompleted, stored.Status)
	assert.NotNil(t, stored.LastClaimedAt)

	// a stale copy cannot push consumed past capacity
	stale := *pool
	stale.Consumed = 0
	stale.Status = models.SponsorshipStatusActive
	assert.ErrorIs(t, svc.ReserveUnit(db, &stale, now), ErrNoCapacity)
}

func TestSponsorTracking(t *testing.T) {
	db := newTestDB(t)
	svc := NewSponsorshipService(db, nil)
	creator := seedUser(t, db, "maya", models.RoleCreator)
	sponsor := seedUser(t, db, "acme", models.RoleSponsor)
	other := seedUser(t, db, "globex", models.RoleSponsor)
	cause := seedCause(t, db, creator.ID, 10, 10, models.CauseStatusApproved)
	base := time.Now().Add(-time.Hour)

	old := seedPool(t, db, cause.ID, sponsor.ID, 4, base)
	seedPool(t, db, cause.ID, sponsor.ID, 2, base.Add(time.Minute))
	seedPool(t, db, cause.ID, other.ID, 9, base)
	require.NoError(t, svc.ReserveUnit(db, old, time.Now()))

	report, err := svc.SponsorTracking(context.Background(), sponsor.ID)
	require.NoError(t, err)
	require.Len(t, report.Sponsorships, 2)
	assert.Equal(t, 6, report.TotalBags)
	assert.Equal(t, 1, report.TotalClaimed)

	last := report.Sponsorships[1]
	assert.Equal(t, old.ID, last.SponsorshipID)
	assert.Equal(t, "School bags", last.CauseTitle)
	assert.Equal(t, 3, last.BagsRemaining)
	assert.Equal(t, "25.00", last.ClaimPercentage)

	empty, err := svc.SponsorTracking(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, empty.Sponsorships)
}
