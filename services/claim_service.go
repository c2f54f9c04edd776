// services/claim_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/logger"
	"tote-sponsor-system/metrics"
	"tote-sponsor-system/models"
)

var (
	ErrAlreadyClaimed = apperrors.NewConflictError("a bag has already been claimed for this cause")
	ErrNoCapacity     = apperrors.NewCapacityExhaustedError("no sponsored bags are left for this cause")
)

// ClaimResult is what the claimant sees after a successful allocation.
type ClaimResult struct {
	ClaimID        string    `json:"claimID"`
	ClaimedAt      time.Time `json:"claimedAt"`
	CauseID        string    `json:"causeID"`
	CauseTitle     string    `json:"causeTitle"`
	SponsorshipID  string    `json:"sponsorshipID"`
	SponsorName    string    `json:"sponsorName"`
	SponsorMessage string    `json:"sponsorMessage,omitempty"`
	TotalClaimed   int       `json:"totalClaimed"`
	TotalSponsored int       `json:"totalSponsored"`
}

type ClaimService struct {
	DB      *gorm.DB
	pools   *SponsorshipService
	metrics metrics.Recorder
	locks   *causeLocks
	now     func() time.Time
}

func NewClaimService(db *gorm.DB, pools *SponsorshipService, rec metrics.Recorder) *ClaimService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &ClaimService{
		DB:      db,
		pools:   pools,
		metrics: rec,
		locks:   newCauseLocks(),
		now:     time.Now,
	}
}

// Allocate hands one bag from the oldest pool with spare capacity to the
// claimant. Claim insert, pool reservation and the cause counter move together
// or not at all. A claimant gets at most one claim per cause; the unique index
// on (cause_id, claimant_identifier) backs the in-transaction check.
func (s *ClaimService) Allocate(ctx context.Context, causeID string, claimant Claimant) (*ClaimResult, error) {
	if claimant.Identifier == "" {
		return nil, ErrClaimantNotVerified
	}

	unlock := s.locks.lock(causeID)
	defer unlock()

	var result ClaimResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cause, err := lockCause(tx, causeID)
		if err != nil {
			return err
		}
		if !cause.IsApproved() {
			return ErrCauseNotApproved
		}

		var existing int64
		if err := tx.Model(&models.Claim{}).
			Where("cause_id = ? AND claimant_identifier = ?", cause.ID, claimant.Identifier).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing claim: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyClaimed
		}

		var pool models.Sponsorship
		if err := tx.Where("cause_id = ? AND status = ? AND consumed < capacity", cause.ID, models.SponsorshipStatusActive).
			Order("created_at ASC, id ASC").
			First(&pool).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoCapacity
			}
			return fmt.Errorf("select pool: %w", err)
		}

		now := s.now()
		claim := models.Claim{
			CauseID:            cause.ID,
			SponsorshipID:      pool.ID,
			UserID:             claimant.UserID,
			ClaimantIdentifier: claimant.Identifier,
			IdentifierKind:     claimant.Kind,
			Status:             models.ClaimStatusCompleted,
			CreatedAt:          now,
		}
		if err := tx.Create(&claim).Error; err != nil {
			if apperrors.IsDuplicateError(err) {
				return ErrAlreadyClaimed
			}
			return fmt.Errorf("create claim: %w", err)
		}

		if err := s.pools.ReserveUnit(tx, &pool, now); err != nil {
			return err
		}

		if err := tx.Model(&models.Cause{}).Where("id = ?", cause.ID).
			UpdateColumn("claimed_count", gorm.Expr("claimed_count + 1")).Error; err != nil {
			return fmt.Errorf("update claimed count: %w", err)
		}

		var sponsor models.User
		if err := tx.Select("id", "name").First(&sponsor, "id = ?", pool.SponsorID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load sponsor: %w", err)
		}

		result = ClaimResult{
			ClaimID:        claim.ID,
			ClaimedAt:      claim.CreatedAt,
			CauseID:        cause.ID,
			CauseTitle:     cause.Title,
			SponsorshipID:  pool.ID,
			SponsorName:    sponsor.Name,
			SponsorMessage: pool.Message,
			TotalClaimed:   cause.ClaimedCount + 1,
			TotalSponsored: cause.PledgedQuantity,
		}
		return nil
	})

	s.metrics.RecordClaim(claimOutcome(err))
	if err != nil {
		return nil, err
	}

	logger.Info("bag claimed", "cause_id", result.CauseID, "claim_id", result.ClaimID, "sponsorship_id", result.SponsorshipID)
	return &result, nil
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return "claimed"
	case errors.Is(err, ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, ErrNoCapacity):
		return "no_capacity"
	case errors.Is(err, ErrCauseNotFound):
		return "cause_not_found"
	case errors.Is(err, ErrCauseNotApproved):
		return "cause_not_approved"
	}
	return "error"
}

// causeLocks serializes allocations per cause within this process. Entries are
// reference counted so idle causes do not accumulate.
type causeLocks struct {
	mu    sync.Mutex
	locks map[string]*causeLock
}

type causeLock struct {
	sync.Mutex
	refs int
}

func newCauseLocks() *causeLocks {
	return &causeLocks{locks: make(map[string]*causeLock)}
}

func (l *causeLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	cl, ok := l.locks[key]
	if !ok {
		cl = &causeLock{}
		l.locks[key] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.Lock()
	return func() {
		cl.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
