package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationSession is one one-time-code challenge. Only hashes of the
// identifier and the code are stored.
type VerificationSession struct {
	ID             string         `gorm:"primaryKey;type:uuid" json:"sessionId"`
	UserID         string         `gorm:"type:uuid;not null;index" json:"-"`
	IdentifierHash string         `gorm:"size:64;not null;index" json:"-"`
	IdentifierKind IdentifierKind `gorm:"type:varchar(16);not null" json:"identifierType"`
	CodeHash       string         `gorm:"size:64;not null" json:"-"`
	Attempts       int            `gorm:"not null;default:0" json:"-"`
	Verified       bool           `gorm:"not null;default:false" json:"verified"`
	VerifiedAt     *time.Time     `json:"verifiedAt,omitempty"`
	ExpiresAt      time.Time      `gorm:"not null;index" json:"expiresAt"`
	CreatedAt      time.Time      `json:"createdAt" gorm:"autoCreateTime"`
}

func (s *VerificationSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsExpired is evaluated at use time; absence of writes says nothing about expiry.
func (s *VerificationSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
