package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CauseStatus is the review state of a cause.
type CauseStatus string

const (
	CauseStatusPending  CauseStatus = "pending"
	CauseStatusApproved CauseStatus = "approved"
	CauseStatusRejected CauseStatus = "rejected"
)

// Cause is a funding request for a fixed quantity of tote bags.
// PledgedQuantity and ClaimedCount are counters mutated only by the pool
// registry and the claim allocator.
type Cause struct {
	ID                string          `gorm:"primaryKey;type:uuid" json:"causeID"`
	CreatedBy         string          `gorm:"type:uuid;not null;index" json:"createdBy"`
	Title             string          `gorm:"size:100;not null" json:"title"`
	Slug              string          `gorm:"size:120;index" json:"slug"`
	Description       string          `gorm:"type:text;not null" json:"description"`
	Category          string          `gorm:"size:64;index" json:"category,omitempty"`
	ImpactLevel       string          `gorm:"size:64;index" json:"impactLevel,omitempty"`
	RequestedQuantity int             `gorm:"not null" json:"qty"`
	PledgedQuantity   int             `gorm:"not null;default:0" json:"claimed"`
	ClaimedCount      int             `gorm:"not null;default:0" json:"claimedCount"`
	SingleItemPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"singleItemPrice"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"totalAmount"`
	CurrentAmount     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"currentPrice"`
	Status            CauseStatus     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt         time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (c *Cause) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Cause) IsApproved() bool {
	return c.Status == CauseStatusApproved
}
