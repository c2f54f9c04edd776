// services/sponsorship_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/logger"
	"tote-sponsor-system/metrics"
	"tote-sponsor-system/models"
)

var (
	ErrCauseNotFound    = apperrors.NewNotFoundError("cause not found")
	ErrCauseNotApproved = apperrors.NewValidationError("cause is not approved")
	ErrInvalidCapacity  = apperrors.NewValidationError("bagCount must be a positive integer")
	ErrCapacityTooLarge = apperrors.NewValidationError(fmt.Sprintf("bagCount must be at most %d", MaxBagsPerRequest))
	ErrPledgeOverflow   = apperrors.NewValidationError("pledge would exceed the cause's funding limits")
)

// Bounds keep counters and amounts inside their columns: quantities are
// bigint, SingleItemPrice is decimal(12,2), TotalAmount and CurrentAmount are
// decimal(14,2).
const (
	MaxBagsPerRequest  = 1_000_000
	MaxPledgedQuantity = math.MaxInt32
)

var (
	MaxSingleItemPrice = decimal.RequireFromString("9999999999.99")
	MaxFundingAmount   = decimal.RequireFromString("999999999999.99")
)

type SponsorshipService struct {
	DB      *gorm.DB
	metrics metrics.Recorder
}

func NewSponsorshipService(db *gorm.DB, rec metrics.Recorder) *SponsorshipService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &SponsorshipService{DB: db, metrics: rec}
}

type CreatePoolInput struct {
	CauseID   string
	SponsorID string
	Capacity  int
	Message   string
	Branding  string
}

// CreatePool records a sponsor's pledge and raises the cause's pledged
// quantity and current amount in the same transaction.
func (s *SponsorshipService) CreatePool(ctx context.Context, in CreatePoolInput) (*models.Sponsorship, error) {
	if in.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if in.Capacity > MaxBagsPerRequest {
		return nil, ErrCapacityTooLarge
	}

	pool := &models.Sponsorship{
		CauseID:   in.CauseID,
		SponsorID: in.SponsorID,
		Capacity:  in.Capacity,
		Message:   in.Message,
		Branding:  in.Branding,
		Status:    models.SponsorshipStatusActive,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cause, err := lockCause(tx, in.CauseID)
		if err != nil {
			return err
		}
		if !cause.IsApproved() {
			return ErrCauseNotApproved
		}

		amount := cause.SingleItemPrice.Mul(decimal.NewFromInt(int64(in.Capacity)))
		if cause.PledgedQuantity > MaxPledgedQuantity-in.Capacity ||
			cause.CurrentAmount.Add(amount).GreaterThan(MaxFundingAmount) {
			return ErrPledgeOverflow
		}

		if err := tx.Create(pool).Error; err != nil {
			return fmt.Errorf("create sponsorship: %w", err)
		}

		return tx.Model(&models.Cause{}).Where("id = ?", cause.ID).Updates(map[string]interface{}{
			"pledged_quantity": gorm.Expr("pledged_quantity + ?", in.Capacity),
			"current_amount":   gorm.Expr("current_amount + ?", amount),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSponsorship(in.Capacity)
	logger.Info("sponsorship created", "sponsorship_id", pool.ID, "cause_id", pool.CauseID, "bags", pool.Capacity)
	return pool, nil
}

// ReserveUnit takes one bag from pool. It must run inside the allocator's
// transaction; the consumed < capacity guard makes a stale pool a no-op that
// reports ErrNoCapacity instead of over-allocating.
func (s *SponsorshipService) ReserveUnit(tx *gorm.DB, pool *models.Sponsorship, now time.Time) error {
	res := tx.Model(&models.Sponsorship{}).
		Where("id = ? AND status = ? AND consumed < capacity", pool.ID, models.SponsorshipStatusActive).
		Updates(map[string]interface{}{
			"consumed":        gorm.Expr("consumed + 1"),
			"status":          gorm.Expr("CASE WHEN consumed + 1 >= capacity THEN ? ELSE status END", models.SponsorshipStatusCompleted),
			"last_claimed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("reserve unit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoCapacity
	}

	pool.Consumed++
	pool.LastClaimedAt = &now
	if pool.Consumed >= pool.Capacity {
		pool.Status = models.SponsorshipStatusCompleted
	}
	return nil
}

// SponsorshipTracking is one row of a sponsor's dashboard.
type SponsorshipTracking struct {
	SponsorshipID   string                   `json:"sponsorshipID"`
	CauseID         string                   `json:"causeID"`
	CauseTitle      string                   `json:"causeTitle"`
	CauseStatus     models.CauseStatus       `json:"causeStatus"`
	BagCount        int                      `json:"bagCount"`
	BagsClaimed     int                      `json:"bagsClaimed"`
	BagsRemaining   int                      `json:"bagsRemaining"`
	ClaimPercentage string                   `json:"claimPercentage"`
	Status          models.SponsorshipStatus `json:"status"`
	Message         string                   `json:"message,omitempty"`
	Branding        string                   `json:"branding,omitempty"`
	LastClaimedAt   *time.Time               `json:"lastClaimedAt"`
	CreatedAt       time.Time                `json:"createdAt"`
}

type TrackingReport struct {
	Sponsorships []SponsorshipTracking `json:"sponsorships"`
	TotalBags    int                   `json:"totalBags"`
	TotalClaimed int                   `json:"totalClaimed"`
}

func (s *SponsorshipService) SponsorTracking(ctx context.Context, sponsorID string) (*TrackingReport, error) {
	var pools []models.Sponsorship
	if err := s.DB.WithContext(ctx).
		Where("sponsor_id = ?", sponsorID).
		Order("created_at DESC").
		Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("load sponsorships: %w", err)
	}

	causeIDs := make([]string, 0, len(pools))
	for _, p := range pools {
		causeIDs = append(causeIDs, p.CauseID)
	}
	causes := map[string]models.Cause{}
	if len(causeIDs) > 0 {
		var rows []models.Cause
		if err := s.DB.WithContext(ctx).Where("id IN ?", causeIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("load causes: %w", err)
		}
		for _, c := range rows {
			causes[c.ID] = c
		}
	}

	report := &TrackingReport{Sponsorships: make([]SponsorshipTracking, 0, len(pools))}
	for _, p := range pools {
		cause := causes[p.CauseID]
		report.Sponsorships = append(report.Sponsorships, SponsorshipTracking{
			SponsorshipID:   p.ID,
			CauseID:         p.CauseID,
			CauseTitle:      cause.Title,
			CauseStatus:     cause.Status,
			BagCount:        p.Capacity,
			BagsClaimed:     p.Consumed,
			BagsRemaining:   p.Remaining(),
			ClaimPercentage: ClaimPercentage(p.Consumed, p.Capacity).StringFixed(2),
			Status:          p.Status,
			Message:         p.Message,
			Branding:        p.Branding,
			LastClaimedAt:   p.LastClaimedAt,
			CreatedAt:       p.CreatedAt,
		})
		report.TotalBags += p.Capacity
		report.TotalClaimed += p.Consumed
	}
	return report, nil
}

// lockCause loads a cause and takes its row lock for the rest of tx.
func lockCause(tx *gorm.DB, causeID string) (*models.Cause, error) {
	if _, err := uuid.Parse(causeID); err != nil {
		return nil, ErrCauseNotFound
	}
	var cause models.Cause
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cause, "id = ?", causeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCauseNotFound
		}
		return nil, fmt.Errorf("load cause: %w", err)
	}
	return &cause, nil
}
