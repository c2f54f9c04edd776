package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tote-sponsor-system/logger"
	"tote-sponsor-system/models"
)

var testSecret = []byte("test-identifier-secret")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Get()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// a single connection keeps every goroutine on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	email := fmt.Sprintf("%s@example.com", name)
	u := &models.User{Name: name, Email: &email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedCause(t *testing.T, db *gorm.DB, creatorID string, qty int, price int64, status models.CauseStatus) *models.Cause {
	t.Helper()
	c := &models.Cause{
		CreatedBy:         creatorID,
		Title:             "School bags",
		Slug:              "school-bags",
		Description:       "Bags for the village school",
		RequestedQuantity: qty,
		SingleItemPrice:   decimal.NewFromInt(price),
		TotalAmount:       decimal.NewFromInt(price * int64(qty)),
		CurrentAmount:     decimal.Zero,
		Status:            status,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// seedPool inserts a pool directly with an explicit CreatedAt so FIFO order is deterministic.
func seedPool(t *testing.T, db *gorm.DB, causeID, sponsorID string, capacity int, createdAt time.Time) *models.Sponsorship {
	t.Helper()
	p := &models.Sponsorship{
		CauseID:   causeID,
		SponsorID: sponsorID,
		Capacity:  capacity,
		Message:   "from " + sponsorID,
		Status:    models.SponsorshipStatusActive,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Model(&models.Cause{}).Where("id = ?", causeID).
		UpdateColumn("pledged_quantity", gorm.Expr("pledged_quantity + ?", capacity)).Error)
	return p
}

func claimantFor(userID, identifier string) Claimant {
	return Claimant{UserID: userID, Identifier: identifier, Kind: models.IdentifierPhone}
}

// recordingSender keeps the last code sent per normalized identifier.
type recordingSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (r *recordingSender) SendCode(_ context.Context, _ models.IdentifierKind, normalized, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.codes == nil {
		r.codes = map[string]string{}
	}
	r.codes[normalized] = code
	return nil
}
