package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SponsorshipStatus string

const (
	SponsorshipStatusActive    SponsorshipStatus = "active"
	SponsorshipStatusCompleted SponsorshipStatus = "completed"
	SponsorshipStatusCancelled SponsorshipStatus = "cancelled"
)

// Sponsorship is one sponsor's pledge: a pool of Capacity bags for a cause.
// Pools are drained oldest CreatedAt first.
type Sponsorship struct {
	ID            string            `gorm:"primaryKey;type:uuid" json:"sponsorshipID"`
	CauseID       string            `gorm:"type:uuid;not null;index:idx_sponsorship_cause_created,priority:1" json:"causeID"`
	SponsorID     string            `gorm:"type:uuid;not null;index" json:"sponsorID"`
	Capacity      int               `gorm:"not null" json:"bagCount"`
	Consumed      int               `gorm:"not null;default:0" json:"bagsClaimed"`
	Branding      string            `json:"branding,omitempty"`
	Message       string            `json:"message,omitempty"`
	Status        SponsorshipStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	LastClaimedAt *time.Time        `json:"lastClaimedAt"`
	CreatedAt     time.Time         `json:"createdAt" gorm:"autoCreateTime;index:idx_sponsorship_cause_created,priority:2"`
	UpdatedAt     time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (s *Sponsorship) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *Sponsorship) Remaining() int {
	return s.Capacity - s.Consumed
}
