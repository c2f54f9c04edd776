package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClaimStatus string

const (
	ClaimStatusCompleted ClaimStatus = "completed"
	ClaimStatusRejected  ClaimStatus = "rejected"
)

// IdentifierKind is the kind of identifier a claimant proved ownership of.
type IdentifierKind string

const (
	IdentifierPhone   IdentifierKind = "phone"
	IdentifierAadhaar IdentifierKind = "aadhaar"
)

func (k IdentifierKind) IsValid() bool {
	return k == IdentifierPhone || k == IdentifierAadhaar
}

// Claim = one bag handed to one claimant from one pool. Immutable once created.
// The (cause_id, claimant_identifier) unique index is what guarantees one bag
// per person per cause.
type Claim struct {
	ID                 string         `gorm:"primaryKey;type:uuid" json:"claimID"`
	CauseID            string         `gorm:"type:uuid;not null;uniqueIndex:idx_claim_cause_claimant,priority:1" json:"causeID"`
	SponsorshipID      string         `gorm:"type:uuid;not null;index" json:"sponsorshipID"`
	UserID             string         `gorm:"type:uuid;not null;index" json:"userID"`
	ClaimantIdentifier string         `gorm:"size:64;not null;uniqueIndex:idx_claim_cause_claimant,priority:2" json:"-"`
	IdentifierKind     IdentifierKind `gorm:"type:varchar(16);not null" json:"identifierType"`
	Status             ClaimStatus    `gorm:"type:varchar(16);not null;default:'completed'" json:"status"`
	CreatedAt          time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
